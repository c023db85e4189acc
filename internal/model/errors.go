package model

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuth           = errors.New("authentication failed")
	ErrSyncInProgress = errors.New("sync already in progress")
)
