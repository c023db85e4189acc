// Package services holds the application core: account lifecycle, sync
// orchestration and the activity read path. Dependencies are injected at
// construction; nothing here owns global state.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/store"
	"github.com/whalemap/whalemap/internal/vault"
	"github.com/whalemap/whalemap/internal/worker"
)

// AccountService manages the binding between a local user and one Docker
// Hub identity.
type AccountService struct {
	store  store.Store
	hub    hubClient
	vault  *vault.Vault
	syncer *SyncService
	pool   *worker.Pool
	log    zerolog.Logger
}

func NewAccountService(st store.Store, hub hubClient, v *vault.Vault, syncer *SyncService, pool *worker.Pool, log zerolog.Logger) *AccountService {
	return &AccountService{store: st, hub: hub, vault: v, syncer: syncer, pool: pool, log: log}
}

// Connect validates and binds a Docker Hub account to userID. The whole
// flow runs in one transaction: conflict check (a username held by a
// different user is refused), cleanup of any prior binding for this user
// or this username including soft-deleted leftovers and their events,
// upstream validation, encrypt, insert. The first sync is submitted to
// the pool after commit and not awaited.
func (s *AccountService) Connect(ctx context.Context, userID, dockerUsername, accessToken string) (*model.Account, error) {
	if userID == "" || dockerUsername == "" || accessToken == "" {
		return nil, fmt.Errorf("%w: user id, docker username and access token are required", model.ErrValidation)
	}

	var account *model.Account
	err := s.store.InTx(ctx, func(tx store.Store) error {
		stale, err := tx.Accounts().ListConflicting(ctx, userID, dockerUsername)
		if err != nil {
			return err
		}
		for _, prior := range stale {
			if prior.DockerUsername == dockerUsername && prior.UserID != userID {
				return fmt.Errorf("%w: docker username %q is connected to another user",
					model.ErrConflict, dockerUsername)
			}
		}
		for _, prior := range stale {
			if err := tx.Events().DeleteForAccount(ctx, prior.ID); err != nil {
				return err
			}
			if err := tx.Accounts().Delete(ctx, prior.ID); err != nil {
				return err
			}
		}

		if err := s.hub.ValidateUser(ctx, dockerUsername); err != nil {
			return err
		}
		if _, err := s.hub.Login(ctx, dockerUsername, accessToken); err != nil {
			return err
		}

		cipherHex, ivHex, err := s.vault.Encrypt(accessToken)
		if err != nil {
			return err
		}
		account, err = tx.Accounts().Create(ctx, &model.Account{
			ID:             uuid.NewString(),
			UserID:         userID,
			DockerUsername: dockerUsername,
			EncryptedToken: cipherHex,
			TokenIV:        ivHex,
			IsActive:       true,
			AutoRefresh:    true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Str("docker_username", dockerUsername).
		Msg("docker account connected")
	s.submitSync("initial-sync", account.ID)
	return account, nil
}

// Get returns the user's connected account.
func (s *AccountService) Get(ctx context.Context, userID string) (*model.Account, error) {
	return s.store.Accounts().GetByUserID(ctx, userID)
}

// Disconnect removes the user's account and all of its events.
func (s *AccountService) Disconnect(ctx context.Context, userID string) error {
	account, err := s.store.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.Events().DeleteForAccount(ctx, account.ID); err != nil {
			return err
		}
		return tx.Accounts().Delete(ctx, account.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("account_id", account.ID).Msg("docker account disconnected")
	return nil
}

// TriggerSync starts an on-demand sync for the user's account. It refuses
// when one is already running and otherwise returns immediately; the run
// itself happens on the pool. The in-progress flag inside Sync remains
// the authoritative guard, this check only gives the caller a prompt
// conflict answer.
func (s *AccountService) TriggerSync(ctx context.Context, userID string) error {
	account, err := s.store.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if account.SyncInProgress {
		return fmt.Errorf("%w: account %s", model.ErrSyncInProgress, account.ID)
	}
	s.submitSync("manual-sync", account.ID)
	return nil
}

func (s *AccountService) submitSync(name, accountID string) {
	err := s.pool.Submit(name, func(ctx context.Context) {
		runCtx, cancel := context.WithTimeout(ctx, SyncTimeout)
		defer cancel()
		if err := s.syncer.Sync(runCtx, accountID); err != nil {
			s.log.Warn().Err(err).Str("account_id", accountID).Str("task", name).
				Msg("background sync failed")
		}
	})
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Str("task", name).
			Msg("could not schedule sync")
	}
}
