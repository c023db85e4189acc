// Package postgres implements store.Store on PostgreSQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/store"
)

const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    docker_username  TEXT NOT NULL,
    encrypted_token  TEXT NOT NULL,
    token_iv         TEXT NOT NULL,
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    auto_refresh     BOOLEAN NOT NULL DEFAULT TRUE,
    sync_in_progress BOOLEAN NOT NULL DEFAULT FALSE,
    last_sync_at     TIMESTAMPTZ,
    last_sync_error  TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at       TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_user_live
    ON accounts (user_id) WHERE deleted_at IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_live
    ON accounts (docker_username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS activity_events (
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    day        DATE NOT NULL,
    repository TEXT NOT NULL,
    tag        TEXT NOT NULL DEFAULT '',
    count      INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (account_id, day, kind, repository, tag)
);
CREATE INDEX IF NOT EXISTS activity_events_day ON activity_events (day);
`

// Open opens a PostgreSQL connection, verifies connectivity and applies
// the schema.
func Open(ctx context.Context, dsn string) (store.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: applying schema: %w", err)
	}
	return &pgStore{db: db, q: db}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgStore struct {
	db *sql.DB // nil inside a transaction
	q  querier
}

func (s *pgStore) Accounts() store.Accounts { return &accounts{q: s.q} }
func (s *pgStore) Events() store.Events    { return &events{q: s.q} }

func (s *pgStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.db == nil {
		// Already transactional; run in the same scope.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&pgStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgStore) HealthPing(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Accounts ---

type accounts struct{ q querier }

const accountColumns = `id, user_id, docker_username, encrypted_token, token_iv,
       is_active, auto_refresh, sync_in_progress, last_sync_at,
       last_sync_error, created_at, deleted_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.UserID, &a.DockerUsername, &a.EncryptedToken,
		&a.TokenIV, &a.IsActive, &a.AutoRefresh, &a.SyncInProgress,
		&a.LastSyncAt, &a.LastSyncError, &a.CreatedAt, &a.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accounts) Create(ctx context.Context, a *model.Account) (*model.Account, error) {
	var created time.Time
	row := r.q.QueryRowContext(ctx, `
        INSERT INTO accounts (id, user_id, docker_username, encrypted_token,
                              token_iv, is_active, auto_refresh)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at
    `, a.ID, a.UserID, a.DockerUsername, a.EncryptedToken, a.TokenIV,
		a.IsActive, a.AutoRefresh)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *a
	out.CreatedAt = created
	return &out, nil
}

func (r *accounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND deleted_at IS NULL`, id))
}

func (r *accounts) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id=$1 AND deleted_at IS NULL`, userID))
}

func (r *accounts) GetByUsername(ctx context.Context, dockerUsername string) (*model.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE docker_username=$1 AND deleted_at IS NULL`, dockerUsername))
}

func (r *accounts) ListConflicting(ctx context.Context, userID, dockerUsername string) ([]*model.Account, error) {
	// Deliberately no deleted_at filter: soft-deleted rows still count for
	// the connect-flow conflict check.
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id=$1 OR docker_username=$2`,
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
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id)
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
		`UPDATE accounts SET deleted_at = now() WHERE id=$1 AND deleted_at IS NULL`, id)
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
        UPDATE accounts SET sync_in_progress = TRUE
        WHERE id=$1 AND NOT sync_in_progress AND deleted_at IS NULL`, id)
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
        SET sync_in_progress = FALSE, last_sync_at = $2, last_sync_error = $3
        WHERE id = $1`, id, at, syncErr)
	return err
}

// --- Events ---

type events struct{ q querier }

func (r *events) Upsert(ctx context.Context, req store.UpsertEventRequest) (bool, error) {
	// xmax = 0 only holds for a freshly inserted row.
	var created bool
	row := r.q.QueryRowContext(ctx, `
        INSERT INTO activity_events (account_id, kind, day, repository, tag, count)
        VALUES ($1,$2,$3,$4,$5,1)
        ON CONFLICT (account_id, day, kind, repository, tag)
        DO UPDATE SET count = activity_events.count + 1
        RETURNING (xmax = 0)
    `, req.AccountID, string(req.Kind), req.Day, req.Repository, req.Tag)
	if err := row.Scan(&created); err != nil {
		return false, err
	}
	return created, nil
}

func (r *events) ListForAccount(ctx context.Context, accountID string, from, to time.Time) ([]*model.ActivityEvent, error) {
	rows, err := r.q.QueryContext(ctx, `
        SELECT account_id, kind, day, repository, tag, count
        FROM activity_events
        WHERE account_id=$1 AND day >= $2 AND day <= $3
        ORDER BY day`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		var kind string
		if err := rows.Scan(&e.AccountID, &kind, &e.Day, &e.Repository, &e.Tag, &e.Count); err != nil {
			return nil, err
		}
		e.Kind = model.EventKind(kind)
		e.Day = model.DayUTC(e.Day)
		res = append(res, &e)
	}
	return res, rows.Err()
}

func (r *events) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM activity_events WHERE day < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *events) DeleteForAccount(ctx context.Context, accountID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM activity_events WHERE account_id=$1`, accountID)
	return err
}
