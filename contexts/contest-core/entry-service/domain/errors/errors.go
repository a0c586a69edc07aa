package errors

import "errors"

var (
	ErrEntryNotFound          = errors.New("entry not found")
	ErrContestNotFound        = errors.New("contest not found")
	ErrImageNotFound          = errors.New("image not found")
	ErrInvalidSubmissionInput = errors.New("invalid submission input")
	ErrEntryConflict          = errors.New("entry conflict")
	ErrInsufficientBalance    = errors.New("insufficient currency balance")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
