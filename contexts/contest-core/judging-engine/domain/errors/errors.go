package errors

import "errors"

var (
	ErrContestNotFound      = errors.New("contest not found")
	ErrEntryNotFound        = errors.New("entry not found")
	ErrContestNotJudgeable  = errors.New("contest is not accepting judgments")
	ErrInvalidJudgmentInput = errors.New("invalid judgment input")
)
