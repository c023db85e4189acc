package sqlite_test

import (
	"context"
	"testing"

	"github.com/whalemap/whalemap/internal/store"
	"github.com/whalemap/whalemap/internal/store/sqlite"
	"github.com/whalemap/whalemap/internal/store/storetest"
)

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := sqlite.Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	})
}
