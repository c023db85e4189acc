// Package storetest holds a driver-agnostic conformance suite for
// store.Store implementations. Each adapter's test package calls Run with
// a factory producing a fresh, empty store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full conformance suite against the given factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("AccountLifecycle", func(t *testing.T) { testAccountLifecycle(t, newStore(t)) })
	t.Run("AccountNotFound", func(t *testing.T) { testAccountNotFound(t, newStore(t)) })
	t.Run("SingleFlightGuard", func(t *testing.T) { testSingleFlightGuard(t, newStore(t)) })
	t.Run("FinishSyncRecordsStatus", func(t *testing.T) { testFinishSyncRecordsStatus(t, newStore(t)) })
	t.Run("ConflictScanSeesSoftDeleted", func(t *testing.T) { testConflictScanSeesSoftDeleted(t, newStore(t)) })
	t.Run("ListSyncableFilters", func(t *testing.T) { testListSyncableFilters(t, newStore(t)) })
	t.Run("EventUpsertIdempotence", func(t *testing.T) { testEventUpsertIdempotence(t, newStore(t)) })
	t.Run("EventKeyDiscriminates", func(t *testing.T) { testEventKeyDiscriminates(t, newStore(t)) })
	t.Run("EventWindowQuery", func(t *testing.T) { testEventWindowQuery(t, newStore(t)) })
	t.Run("RetentionCutoffBoundary", func(t *testing.T) { testRetentionCutoffBoundary(t, newStore(t)) })
	t.Run("DeleteForAccountScoped", func(t *testing.T) { testDeleteForAccountScoped(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newAccount(t *testing.T, s store.Store, userID, username string) *model.Account {
	t.Helper()
	a, err := s.Accounts().Create(context.Background(), &model.Account{
		ID:             uuid.New().String(),
		UserID:         userID,
		DockerUsername: username,
		EncryptedToken: "aa",
		TokenIV:        "bb",
		IsActive:       true,
		AutoRefresh:    true,
	})
	require.NoError(t, err)
	return a
}

func upsert(t *testing.T, s store.Store, acct string, d time.Time, repo, tag string) bool {
	t.Helper()
	created, err := s.Events().Upsert(context.Background(), store.UpsertEventRequest{
		AccountID: acct, Kind: model.EventPush, Day: d, Repository: repo, Tag: tag,
	})
	require.NoError(t, err)
	return created
}

func testAccountLifecycle(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	a := newAccount(t, s, "u1", "alice")
	require.False(t, a.CreatedAt.IsZero())

	got, err := s.Accounts().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.True(t, got.IsActive)
	require.Empty(t, got.LastSyncError)
	require.Nil(t, got.LastSyncAt)

	byName, err := s.Accounts().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, a.ID, byName.ID)

	require.NoError(t, s.Accounts().Delete(ctx, a.ID))
	_, err = s.Accounts().GetByID(ctx, a.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, s.Accounts().Delete(ctx, a.ID), model.ErrNotFound)
}

func testAccountNotFound(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	_, err := s.Accounts().GetByUserID(ctx, "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Accounts().GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func testSingleFlightGuard(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	a := newAccount(t, s, "u1", "alice")

	ok, err := s.Accounts().BeginSync(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok, "first acquire must win")

	ok, err = s.Accounts().BeginSync(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, ok, "second acquire must lose while running")

	require.NoError(t, s.Accounts().FinishSync(ctx, a.ID, time.Now(), ""))

	ok, err = s.Accounts().BeginSync(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok, "acquire must win again after finish")
}

func testFinishSyncRecordsStatus(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	a := newAccount(t, s, "u1", "alice")

	ok, err := s.Accounts().BeginSync(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	at := time.Date(2026, 2, 3, 12, 30, 0, 0, time.UTC)
	require.NoError(t, s.Accounts().FinishSync(ctx, a.ID, at, "authentication failed"))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.SyncInProgress)
	require.Equal(t, "authentication failed", got.LastSyncError)
	require.NotNil(t, got.LastSyncAt)
	require.True(t, got.LastSyncAt.Equal(at))

	// A healthy run clears the error text.
	_, err = s.Accounts().BeginSync(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, s.Accounts().FinishSync(ctx, a.ID, at.Add(time.Hour), ""))
	got, err = s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, got.LastSyncError)
}

func testConflictScanSeesSoftDeleted(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	a := newAccount(t, s, "u1", "alice")
	require.NoError(t, s.Accounts().SoftDelete(ctx, a.ID))

	// Hidden from normal reads.
	_, err := s.Accounts().GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, model.ErrNotFound)

	// Visible to the conflict scan, by user and by username.
	rows, err := s.Accounts().ListConflicting(ctx, "someone-else", "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].DeletedAt)

	rows, err = s.Accounts().ListConflicting(ctx, "u1", "other-name")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func testListSyncableFilters(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	eligible := newAccount(t, s, "u1", "alice")

	inactive, err := s.Accounts().Create(ctx, &model.Account{
		ID: uuid.New().String(), UserID: "u2", DockerUsername: "bob",
		EncryptedToken: "aa", TokenIV: "bb", IsActive: false, AutoRefresh: true,
	})
	require.NoError(t, err)

	manualOnly, err := s.Accounts().Create(ctx, &model.Account{
		ID: uuid.New().String(), UserID: "u3", DockerUsername: "carol",
		EncryptedToken: "aa", TokenIV: "bb", IsActive: true, AutoRefresh: false,
	})
	require.NoError(t, err)

	gone := newAccount(t, s, "u4", "dave")
	require.NoError(t, s.Accounts().SoftDelete(ctx, gone.ID))

	rows, err := s.Accounts().ListSyncable(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, eligible.ID, rows[0].ID)
	_ = inactive
	_ = manualOnly
}

func testEventUpsertIdempotence(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	a := newAccount(t, s, "u1", "alice")
	d := day(2026, 1, 17)

	require.True(t, upsert(t, s, a.ID, d, "api", "latest"))
	require.False(t, upsert(t, s, a.ID, d, "api", "latest"))

	events, err := s.Events().ListForAccount(context.Background(), a.ID, d, d)
	require.NoError(t, err)
	require.Len(t, events, 1, "same key must not duplicate rows")
	require.Equal(t, 2, events[0].Count)
}

func testEventKeyDiscriminates(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	a := newAccount(t, s, "u1", "alice")
	d := day(2026, 1, 17)

	require.True(t, upsert(t, s, a.ID, d, "api", ""))
	require.True(t, upsert(t, s, a.ID, d, "api", "latest"))
	require.True(t, upsert(t, s, a.ID, d, "api", "v1"))
	require.True(t, upsert(t, s, a.ID, d.AddDate(0, 0, 1), "api", "latest"))
	require.True(t, upsert(t, s, a.ID, d, "worker", "latest"))

	events, err := s.Events().ListForAccount(context.Background(), a.ID, d, d.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 5)
	for _, e := range events {
		require.Equal(t, 1, e.Count)
	}
}

func testEventWindowQuery(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	a := newAccount(t, s, "u1", "alice")

	for i := 0; i < 5; i++ {
		upsert(t, s, a.ID, day(2026, 1, 10+i), "api", "latest")
	}

	// Inclusive at both ends, ascending.
	events, err := s.Events().ListForAccount(context.Background(), a.ID,
		day(2026, 1, 11), day(2026, 1, 13))
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.True(t, events[0].Day.Equal(day(2026, 1, 11)))
	require.True(t, events[2].Day.Equal(day(2026, 1, 13)))
}

func testRetentionCutoffBoundary(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	a := newAccount(t, s, "u1", "alice")
	cutoff := day(2025, 8, 28)

	upsert(t, s, a.ID, cutoff.AddDate(0, 0, -2), "api", "old2")
	upsert(t, s, a.ID, cutoff.AddDate(0, 0, -1), "api", "old1")
	upsert(t, s, a.ID, cutoff, "api", "boundary")
	upsert(t, s, a.ID, cutoff.AddDate(0, 0, 1), "api", "fresh")

	n, err := s.Events().DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "strictly-before rows only")

	events, err := s.Events().ListForAccount(context.Background(), a.ID,
		cutoff.AddDate(0, 0, -10), cutoff.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Day.Equal(cutoff), "boundary day must survive")
}

func testDeleteForAccountScoped(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	a := newAccount(t, s, "u1", "alice")
	b := newAccount(t, s, "u2", "bob")
	d := day(2026, 1, 17)

	upsert(t, s, a.ID, d, "api", "latest")
	upsert(t, s, b.ID, d, "api", "latest")

	require.NoError(t, s.Events().DeleteForAccount(ctx, a.ID))

	gone, err := s.Events().ListForAccount(ctx, a.ID, d, d)
	require.NoError(t, err)
	require.Empty(t, gone)

	kept, err := s.Events().ListForAccount(ctx, b.ID, d, d)
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func testTxRollback(t *testing.T, s store.Store) {
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	sentinel := model.ErrConflict
	err := s.InTx(ctx, func(tx store.Store) error {
		_, err := tx.Accounts().Create(ctx, &model.Account{
			ID: uuid.New().String(), UserID: "u1", DockerUsername: "alice",
			EncryptedToken: "aa", TokenIV: "bb", IsActive: true, AutoRefresh: true,
		})
		require.NoError(t, err)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Accounts().GetByUserID(ctx, "u1")
	require.ErrorIs(t, err, model.ErrNotFound, "rolled-back insert must not be visible")
}
