package errors

import "errors"

var (
	ErrContestNotFound       = errors.New("contest not found")
	ErrContestNotFinalizable = errors.New("contest cannot be finalized in its current state")
	ErrContestNotCancellable = errors.New("contest cannot be cancelled in its current state")
	ErrContestNotCompleted   = errors.New("contest results are not available yet")
	ErrInvalidPrizeInput     = errors.New("invalid prize calculation input")
)
