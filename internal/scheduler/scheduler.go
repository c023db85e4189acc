// Package scheduler drives the periodic reconciliation sweep and the
// daily retention cleanup on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/services"
	"github.com/whalemap/whalemap/internal/store"
)

const (
	// debounce skips accounts the sweep synced recently; manual triggers
	// are not subject to it.
	debounce = 4 * time.Hour

	// accountPause spaces out upstream calls between accounts.
	accountPause = 2 * time.Second

	// retention is how far back events are kept.
	retention = 365 * 24 * time.Hour
)

// Scheduler owns the cron loop. Both jobs are independent; a failing
// account never stops the sweep over the rest.
type Scheduler struct {
	cron   *cron.Cron
	store  store.Store
	syncer *services.SyncService
	log    zerolog.Logger

	now   func() time.Time
	pause time.Duration
}

func New(st store.Store, syncer *services.SyncService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		store:  st,
		syncer: syncer,
		log:    log,
		now:    time.Now,
		pause:  accountPause,
	}
}

// Start registers both jobs and starts the loop. Specs come from config
// so operators can retune the cadence without a rebuild.
func (s *Scheduler) Start(syncSpec, cleanupSpec string) error {
	if _, err := s.cron.AddFunc(syncSpec, s.sweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cleanupSpec, s.cleanup); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("sync_spec", syncSpec).Str("cleanup_spec", cleanupSpec).
		Msg("scheduler started")
	return nil
}

// Stop halts the loop and waits for any running job to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// sweep syncs every eligible account sequentially with a short pause in
// between to stay friendly to the upstream API.
func (s *Scheduler) sweep() {
	ctx := context.Background()
	accounts, err := s.store.Accounts().ListSyncable(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep could not list accounts")
		return
	}
	s.log.Info().Int("accounts", len(accounts)).Msg("reconciliation sweep started")

	for i, account := range accounts {
		reason, ok := s.eligible(account)
		if !ok {
			s.log.Debug().Str("account_id", account.ID).Str("reason", reason).
				Msg("sweep skipping account")
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, services.SyncTimeout)
		err := s.syncer.Sync(runCtx, account.ID)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", account.ID).
				Msg("sweep sync failed")
		}

		if i < len(accounts)-1 {
			time.Sleep(s.pause)
		}
	}
	s.log.Info().Msg("reconciliation sweep completed")
}

// eligible applies the sweep-only skip rules. The single-flight guard in
// the orchestrator stays authoritative; this check just avoids pointless
// attempts and implements the debounce.
func (s *Scheduler) eligible(account *model.Account) (reason string, ok bool) {
	if account.SyncInProgress {
		return "sync in progress", false
	}
	if account.LastSyncAt != nil && s.now().Sub(*account.LastSyncAt) < debounce {
		return "synced recently", false
	}
	return "", true
}

// cleanup drops events older than the retention window.
func (s *Scheduler) cleanup() {
	cutoff := model.DayUTC(s.now().Add(-retention))
	deleted, err := s.store.Events().DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("retention cleanup failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).
		Msg("retention cleanup completed")
}
