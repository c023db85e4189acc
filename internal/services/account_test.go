package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/registry"
	"github.com/whalemap/whalemap/internal/worker"
)

func newAccountService(t *testing.T, env *testEnv) (*AccountService, *worker.Pool) {
	t.Helper()
	pool := worker.NewPool(2, zerolog.Nop())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	svc := NewAccountService(env.store, env.hub, env.vault, env.syncer, pool, zerolog.Nop())
	return svc, pool
}

func TestConnectPersistsEncryptedToken(t *testing.T) {
	env := newTestEnv(t)
	svc, pool := newAccountService(t, env)
	ctx := context.Background()

	account, err := svc.Connect(ctx, "u1", "alice", "dckr_pat_123")
	require.NoError(t, err)
	require.True(t, account.IsActive)
	require.True(t, account.AutoRefresh)

	stored, err := env.store.Accounts().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotEqual(t, "dckr_pat_123", stored.EncryptedToken)

	plain, err := env.vault.Decrypt(stored.EncryptedToken, stored.TokenIV)
	require.NoError(t, err)
	require.Equal(t, "dckr_pat_123", plain)

	// The first sync was submitted fire-and-forget; drain the pool so it
	// finishes before we assert.
	require.NoError(t, pool.Shutdown(ctx))
	got, err := env.store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.False(t, got.SyncInProgress)
	require.NotNil(t, got.LastSyncAt)
}

func TestConnectRejectsUsernameHeldByOtherUser(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	env.seedAccount(t, "owner", "alice")

	_, err := svc.Connect(ctx, "intruder", "alice", "dckr_pat_123")
	require.ErrorIs(t, err, model.ErrConflict)

	// Nothing was created or destroyed.
	_, err = env.store.Accounts().GetByUserID(ctx, "intruder")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = env.store.Accounts().GetByUserID(ctx, "owner")
	require.NoError(t, err)
}

func TestConnectSeesSoftDeletedConflicts(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	old := env.seedAccount(t, "owner", "alice")
	require.NoError(t, env.store.Accounts().SoftDelete(ctx, old.ID))

	_, err := svc.Connect(ctx, "intruder", "alice", "dckr_pat_123")
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestConnectReplacesOwnPriorBinding(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	old := env.seedAccount(t, "u1", "alice")
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.store.Events().Upsert(ctx, eventReq(old.ID, day))
	require.NoError(t, err)

	fresh, err := svc.Connect(ctx, "u1", "alice", "dckr_pat_456")
	require.NoError(t, err)
	require.NotEqual(t, old.ID, fresh.ID)

	_, err = env.store.Accounts().GetByID(ctx, old.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	events, err := env.store.Events().ListForAccount(ctx, old.ID, day, day)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestConnectValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	_, err := svc.Connect(ctx, "", "alice", "tok")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Connect(ctx, "u1", "", "tok")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Connect(ctx, "u1", "alice", "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestConnectRejectsBadCredential(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	env.hub.login = func(ctx context.Context, username, pat string) (string, error) {
		return "", model.ErrAuth
	}

	_, err := svc.Connect(ctx, "u1", "alice", "wrong")
	require.ErrorIs(t, err, model.ErrAuth)

	// The transaction rolled back: no account row.
	_, err = env.store.Accounts().GetByUserID(ctx, "u1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestConnectRejectsUnknownHubUser(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)

	env.hub.validate = func(ctx context.Context, username string) error {
		return model.ErrNotFound
	}

	_, err := svc.Connect(context.Background(), "u1", "ghost", "tok")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDisconnectRemovesAccountAndEvents(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	account := env.seedAccount(t, "u1", "alice")
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.store.Events().Upsert(ctx, eventReq(account.ID, day))
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, "u1"))

	_, err = env.store.Accounts().GetByUserID(ctx, "u1")
	require.ErrorIs(t, err, model.ErrNotFound)
	events, err := env.store.Events().ListForAccount(ctx, account.ID, day, day)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDisconnectWithoutAccount(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	require.ErrorIs(t, svc.Disconnect(context.Background(), "nobody"), model.ErrNotFound)
}

func TestTriggerSyncConflictsWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	ctx := context.Background()

	account := env.seedAccount(t, "u1", "alice")
	started, err := env.store.Accounts().BeginSync(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, started)

	require.ErrorIs(t, svc.TriggerSync(ctx, "u1"), model.ErrSyncInProgress)
}

func TestTriggerSyncRunsInBackground(t *testing.T) {
	env := newTestEnv(t)
	svc, pool := newAccountService(t, env)
	ctx := context.Background()

	account := env.seedAccount(t, "u1", "alice")
	env.hub.repos = func(ctx context.Context, username, token string) ([]registry.Repository, error) {
		return []registry.Repository{{Name: "app", LastUpdated: "2026-08-10T08:19:30Z"}}, nil
	}

	require.NoError(t, svc.TriggerSync(ctx, "u1"))
	require.NoError(t, pool.Shutdown(ctx))

	events, err := env.store.Events().ListForAccount(ctx, account.ID,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestTriggerSyncUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newAccountService(t, env)
	err := svc.TriggerSync(context.Background(), "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)

	// Should never wrap auth noise into not-found paths.
	require.False(t, errors.Is(err, model.ErrAuth))
}
