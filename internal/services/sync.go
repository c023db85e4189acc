package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/registry"
	"github.com/whalemap/whalemap/internal/store"
	"github.com/whalemap/whalemap/internal/vault"
)

// SyncTimeout bounds one account's sync run, however it was triggered.
const SyncTimeout = 5 * time.Minute

// Status messages recorded on the account. These are deliberately fixed
// strings: raw upstream error text may embed credentials and must never
// reach the status field.
const (
	msgAuthFailed      = "Authentication failed"
	msgFetchRepos      = "Failed to fetch repositories"
	msgSyncInterrupted = "Sync interrupted"
)

// hubClient is the slice of the registry client the orchestrator needs.
// Tests substitute a fake.
type hubClient interface {
	Login(ctx context.Context, username, pat string) (string, error)
	ValidateUser(ctx context.Context, username string) error
	FetchRepositories(ctx context.Context, username, token string) ([]registry.Repository, error)
	FetchTags(ctx context.Context, username, repo, token string) ([]registry.Tag, error)
}

// SyncService pulls activity from Docker Hub into the event store, one
// account at a time.
type SyncService struct {
	store store.Store
	hub   hubClient
	vault *vault.Vault
	log   zerolog.Logger
}

func NewSyncService(st store.Store, hub hubClient, v *vault.Vault, log zerolog.Logger) *SyncService {
	return &SyncService{store: st, hub: hub, vault: v, log: log}
}

// Sync runs one full sync for the account. Concurrent runs for the same
// account are refused with ErrSyncInProgress; the in-progress flag is
// cleared on every exit path, including panics and context expiry.
//
// Failure handling follows two tiers. Hard failures (authentication,
// repository listing) abort the run and land in the account's last-error
// field. Soft failures (a single repository's tags, an unparseable
// timestamp) are logged and skipped so the rest of the run proceeds.
func (s *SyncService) Sync(ctx context.Context, accountID string) (err error) {
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	started, err := s.store.Accounts().BeginSync(ctx, accountID)
	if err != nil {
		return err
	}
	if !started {
		return fmt.Errorf("%w: account %s", model.ErrSyncInProgress, accountID)
	}

	statusMsg := ""
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("account_id", accountID).Interface("panic", r).
				Msg("sync panicked")
			statusMsg = msgSyncInterrupted
			err = fmt.Errorf("sync %s: panic: %v", accountID, r)
		}
		// The run's context may already be dead; the status write gets
		// its own deadline so the flag can never stay stuck.
		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.Accounts().FinishSync(finishCtx, accountID, time.Now().UTC(), statusMsg); err != nil {
			s.log.Error().Err(err).Str("account_id", accountID).
				Msg("failed to record sync status")
		}
	}()

	// Decryption failure degrades to an unauthenticated run over public
	// repositories instead of aborting.
	token := ""
	pat, err := s.vault.Decrypt(account.EncryptedToken, account.TokenIV)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).
			Msg("token decryption failed, syncing public data only")
	} else {
		token, err = s.hub.Login(ctx, account.DockerUsername, pat)
		if err != nil {
			statusMsg = msgAuthFailed
			return fmt.Errorf("sync %s: %w", accountID, err)
		}
	}

	repos, err := s.hub.FetchRepositories(ctx, account.DockerUsername, token)
	if err != nil {
		statusMsg = msgFetchRepos
		return fmt.Errorf("sync %s: %w", accountID, err)
	}

	created, seen := 0, 0
	for _, repo := range repos {
		if repo.LastUpdated != "" {
			if t, err := registry.ParseTime(repo.LastUpdated); err == nil {
				if s.record(ctx, accountID, t, repo.Name, "") {
					created++
				}
				seen++
			} else {
				s.log.Debug().Err(err).Str("repository", repo.Name).
					Msg("skipping repository with unparseable timestamp")
			}
		}

		tags, err := s.hub.FetchTags(ctx, account.DockerUsername, repo.Name, token)
		if err != nil {
			s.log.Warn().Err(err).Str("repository", repo.Name).
				Msg("skipping tags for repository")
			continue
		}
		for _, tag := range tags {
			if tag.TagLastPushed == "" {
				continue
			}
			t, err := registry.ParseTime(tag.TagLastPushed)
			if err != nil {
				s.log.Debug().Err(err).Str("repository", repo.Name).Str("tag", tag.Name).
					Msg("skipping tag with unparseable timestamp")
				continue
			}
			if s.record(ctx, accountID, t, repo.Name, tag.Name) {
				created++
			}
			seen++
		}
	}

	s.log.Info().Str("account_id", accountID).
		Int("repositories", len(repos)).Int("events_seen", seen).Int("events_created", created).
		Msg("sync completed")
	return nil
}

// record upserts one push observation. Store errors are soft here: one
// bad write must not abort the remaining resources.
func (s *SyncService) record(ctx context.Context, accountID string, at time.Time, repo, tag string) bool {
	created, err := s.store.Events().Upsert(ctx, store.UpsertEventRequest{
		AccountID:  accountID,
		Kind:       model.EventPush,
		Day:        model.DayUTC(at),
		Repository: repo,
		Tag:        tag,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Str("repository", repo).Str("tag", tag).
			Msg("event upsert failed")
		return false
	}
	return created
}
