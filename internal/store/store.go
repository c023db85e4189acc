// Package store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
package store

import (
	"context"
	"time"

	"github.com/whalemap/whalemap/internal/model"
)

// Store is the durable keyed store behind the sync and read paths.
type Store interface {
	Accounts() Accounts
	Events() Events

	// InTx runs fn against a transactional view of the store. fn returning
	// an error rolls the transaction back.
	InTx(ctx context.Context, fn func(tx Store) error) error

	HealthPing(ctx context.Context) error
	Close() error
}

// Accounts persists registry account bindings and their sync status.
type Accounts interface {
	Create(ctx context.Context, a *model.Account) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUserID(ctx context.Context, userID string) (*model.Account, error)
	GetByUsername(ctx context.Context, dockerUsername string) (*model.Account, error)

	// ListConflicting returns every row bound to userID or dockerUsername,
	// including soft-deleted rows. The connect flow uses it to detect
	// username conflicts and to clean up prior bindings.
	ListConflicting(ctx context.Context, userID, dockerUsername string) ([]*model.Account, error)

	// ListSyncable returns non-deleted accounts with both the active and
	// auto-refresh flags set.
	ListSyncable(ctx context.Context) ([]*model.Account, error)

	// Delete removes the row permanently.
	Delete(ctx context.Context, id string) error

	// SoftDelete marks the row deleted without removing it. Soft-deleted
	// rows are hidden from every read except ListConflicting; the connect
	// flow purges them. Operator tooling and data imported from the
	// previous ORM-based system produce rows in this state.
	SoftDelete(ctx context.Context, id string) error

	// BeginSync atomically sets the in-progress flag. It returns false when
	// the flag was already set; this is the single-flight guard.
	BeginSync(ctx context.Context, id string) (bool, error)

	// FinishSync clears the in-progress flag, stamps the sync time and
	// records the error text ("" = healthy). It must succeed for rows in
	// any state so a failed sync can never leave the flag stuck.
	FinishSync(ctx context.Context, id string, at time.Time, syncErr string) error
}

// UpsertEventRequest identifies one activity observation. Day must already
// be normalized to midnight UTC by the caller.
type UpsertEventRequest struct {
	AccountID  string
	Kind       model.EventKind
	Day        time.Time
	Repository string
	Tag        string
}

// Events persists idempotent activity observations.
type Events interface {
	// Upsert inserts the event with count 1 and returns true, or increments
	// the existing row's count and returns false.
	Upsert(ctx context.Context, req UpsertEventRequest) (created bool, err error)

	// ListForAccount returns events with from <= day <= to, ascending by day.
	ListForAccount(ctx context.Context, accountID string, from, to time.Time) ([]*model.ActivityEvent, error)

	// DeleteOlderThan removes events whose day is strictly before cutoff
	// and reports how many rows were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteForAccount removes all events belonging to an account.
	DeleteForAccount(ctx context.Context, accountID string) error
}
