package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyClaimed   = errors.New("already claimed")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrCancelled        = errors.New("cancelled")
	ErrStageFailure     = errors.New("stage failure")
	ErrNoContent        = errors.New("no usable content produced")
)
