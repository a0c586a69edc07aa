package errors

import "errors"

var (
	ErrContestNotFound        = errors.New("contest not found")
	ErrInvalidContestInput    = errors.New("invalid contest input")
	ErrInvalidStateTransition = errors.New("invalid contest state transition")
	ErrContestConflict        = errors.New("contest conflict")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
