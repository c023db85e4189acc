// Package sqlite implements store.Store on an embedded SQLite database
// (pure-Go modernc driver). It backs local deployments and the store
// conformance tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/store"
)

const dayFormat = "2006-01-02"

const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    docker_username  TEXT NOT NULL,
    encrypted_token  TEXT NOT NULL,
    token_iv         TEXT NOT NULL,
    is_active        INTEGER NOT NULL DEFAULT 1,
    auto_refresh     INTEGER NOT NULL DEFAULT 1,
    sync_in_progress INTEGER NOT NULL DEFAULT 0,
    last_sync_at     TEXT,
    last_sync_error  TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL,
    deleted_at       TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_user_live
    ON accounts (user_id) WHERE deleted_at IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_live
    ON accounts (docker_username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS activity_events (
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    day        TEXT NOT NULL,
    repository TEXT NOT NULL,
    tag        TEXT NOT NULL DEFAULT '',
    count      INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (account_id, day, kind, repository, tag)
);
CREATE INDEX IF NOT EXISTS activity_events_day ON activity_events (day);
`

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for tests.
func Open(ctx context.Context, path string) (store.Store, error) {
	// Pragmas go in the DSN so every pooled connection gets them. WAL
	// allows concurrent readers during the sync write path.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pool connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: applying schema: %w", err)
	}
	return &liteStore{db: db, q: db}, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type liteStore struct {
	db *sql.DB // nil inside a transaction
	q  querier
}

func (s *liteStore) Accounts() store.Accounts { return &accounts{q: s.q} }
func (s *liteStore) Events() store.Events    { return &events{q: s.q} }

func (s *liteStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&liteStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *liteStore) HealthPing(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *liteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Time columns are stored as RFC 3339 text; day columns as "2006-01-02".

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Accounts ---

type accounts struct{ q querier }

const accountColumns = `id, user_id, docker_username, encrypted_token, token_iv,
       is_active, auto_refresh, sync_in_progress, last_sync_at,
       last_sync_error, created_at, deleted_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var lastSync, createdAt *string
	var deletedAt *string
	err := row.Scan(&a.ID, &a.UserID, &a.DockerUsername, &a.EncryptedToken,
		&a.TokenIV, &a.IsActive, &a.AutoRefresh, &a.SyncInProgress,
		&lastSync, &a.LastSyncError, &createdAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.LastSyncAt, err = parseTimePtr(lastSync); err != nil {
		return nil, err
	}
	if createdAt != nil {
		t, err := time.Parse(time.RFC3339Nano, *createdAt)
		if err != nil {
			return nil, err
		}
		a.CreatedAt = t
	}
	if a.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accounts) Create(ctx context.Context, a *model.Account) (*model.Account, error) {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
        INSERT INTO accounts (id, user_id, docker_username, encrypted_token,
                              token_iv, is_active, auto_refresh, created_at)
        VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, a.UserID, a.DockerUsername, a.EncryptedToken, a.TokenIV,
		a.IsActive, a.AutoRefresh, fmtTime(now))
	if err != nil {
		return nil, err
	}
	out := *a
	out.CreatedAt = now
	return &out, nil
}

func (r *accounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=? AND deleted_at IS NULL`, id))
}

func (r *accounts) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id=? AND deleted_at IS NULL`, userID))
}

func (r *accounts) GetByUsername(ctx context.Context, dockerUsername string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE docker_username=? AND deleted_at IS NULL`, dockerUsername))
}

func (r *accounts) ListConflicting(ctx context.Context, userID, dockerUsername string) ([]*model.Account, error) {
	// No deleted_at filter: soft-deleted rows still count as conflicts.
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id=? OR docker_username=?`,
		userID, dockerUsername)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accounts) ListSyncable(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.q.QueryContext(ctx, `
        SELECT `+accountColumns+` FROM accounts
        WHERE is_active AND auto_refresh AND deleted_at IS NULL
        ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]*model.Account, error) {
	defer func() { _ = rows.Close() }()
	var res []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *accounts) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *accounts) SoftDelete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = ? WHERE id=? AND deleted_at IS NULL`,
		fmtTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *accounts) BeginSync(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
        UPDATE accounts SET sync_in_progress = 1
        WHERE id=? AND sync_in_progress = 0 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *accounts) FinishSync(ctx context.Context, id string, at time.Time, syncErr string) error {
	_, err := r.q.ExecContext(ctx, `
        UPDATE accounts
        SET sync_in_progress = 0, last_sync_at = ?, last_sync_error = ?
        WHERE id = ?`, fmtTime(at), syncErr, id)
	return err
}

// --- Events ---

type events struct{ q querier }

func (r *events) Upsert(ctx context.Context, req store.UpsertEventRequest) (bool, error) {
	var count int
	row := r.q.QueryRowContext(ctx, `
        INSERT INTO activity_events (account_id, kind, day, repository, tag, count)
        VALUES (?,?,?,?,?,1)
        ON CONFLICT (account_id, day, kind, repository, tag)
        DO UPDATE SET count = count + 1
        RETURNING count
    `, req.AccountID, string(req.Kind), req.Day.Format(dayFormat), req.Repository, req.Tag)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count == 1, nil
}

func (r *events) ListForAccount(ctx context.Context, accountID string, from, to time.Time) ([]*model.ActivityEvent, error) {
	rows, err := r.q.QueryContext(ctx, `
        SELECT account_id, kind, day, repository, tag, count
        FROM activity_events
        WHERE account_id=? AND day >= ? AND day <= ?
        ORDER BY day`,
		accountID, from.Format(dayFormat), to.Format(dayFormat))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		var kind, day string
		if err := rows.Scan(&e.AccountID, &kind, &day, &e.Repository, &e.Tag, &e.Count); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, err
		}
		e.Kind = model.EventKind(kind)
		e.Day = d
		res = append(res, &e)
	}
	return res, rows.Err()
}

func (r *events) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM activity_events WHERE day < ?`,
		cutoff.UTC().Format(dayFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *events) DeleteForAccount(ctx context.Context, accountID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM activity_events WHERE account_id=?`, accountID)
	return err
}
