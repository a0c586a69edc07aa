package services

import (
	"fmt"
	"strings"
	"time"

	"crucible/contexts/contest-core/entry-service/domain/valueobjects"
)

type ValidationErrorKind string

const (
	KindIncompatibleRating  ValidationErrorKind = "IncompatibleRating"
	KindNotOwner            ValidationErrorKind = "NotOwner"
	KindDuplicateImage      ValidationErrorKind = "DuplicateImage"
	KindUserLimitReached    ValidationErrorKind = "UserLimitReached"
	KindContestFull         ValidationErrorKind = "ContestFull"
	KindNotAcceptingEntries ValidationErrorKind = "NotAcceptingEntries"
	KindContestEnded        ValidationErrorKind = "ContestEnded"
)

// ValidationError is the structured rejection surfaced to the submitting user.
// It satisfies error so orchestration can fail fast, while transports can
// still branch on Kind.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionFacts carries everything the validator needs, already fetched by
// the orchestrator. Checks below are pure; no data access happens here.
type SubmissionFacts struct {
	ImageRating          valueobjects.RatingSet
	ContestAllowedRating valueobjects.RatingSet
	ImageOwnerID         string
	SubmittingUserID     string
	ExistingImageIDs     []string
	NewImageID           string
	UserEntryCount       int
	EntryLimitPerUser    int
	TotalEntryCount      int
	MaxTotalEntries      *int
	ContestActive        bool
	EndAt                *time.Time
	Now                  time.Time
}

// ValidateSubmission runs every rule in a fixed order and returns the first
// violation, or nil when the submission may proceed.
func ValidateSubmission(facts SubmissionFacts) *ValidationError {
	if err := CheckContentRating(facts.ImageRating, facts.ContestAllowedRating); err != nil {
		return err
	}
	if err := CheckImageOwnership(facts.ImageOwnerID, facts.SubmittingUserID); err != nil {
		return err
	}
	if err := CheckDuplicateImage(facts.ExistingImageIDs, facts.NewImageID); err != nil {
		return err
	}
	if err := CheckUserEntryLimit(facts.UserEntryCount, facts.EntryLimitPerUser); err != nil {
		return err
	}
	if err := CheckContestCapacity(facts.TotalEntryCount, facts.MaxTotalEntries); err != nil {
		return err
	}
	if err := CheckContestOpen(facts.ContestActive, facts.EndAt, facts.Now); err != nil {
		return err
	}
	return nil
}

func CheckContentRating(imageRating, contestAllowed valueobjects.RatingSet) *ValidationError {
	if valueobjects.Intersects(imageRating, contestAllowed) {
		return nil
	}
	return &ValidationError{
		Kind:    KindIncompatibleRating,
		Message: "this image's content rating is not allowed in this contest",
	}
}

func CheckImageOwnership(imageOwnerID, submittingUserID string) *ValidationError {
	if strings.TrimSpace(imageOwnerID) != "" &&
		strings.TrimSpace(imageOwnerID) == strings.TrimSpace(submittingUserID) {
		return nil
	}
	return &ValidationError{
		Kind:    KindNotOwner,
		Message: "you can only submit images you own",
	}
}

func CheckDuplicateImage(existingImageIDs []string, newImageID string) *ValidationError {
	newImageID = strings.TrimSpace(newImageID)
	for _, imageID := range existingImageIDs {
		if strings.TrimSpace(imageID) == newImageID {
			return &ValidationError{
				Kind:    KindDuplicateImage,
				Message: "this image has already been entered into this contest",
			}
		}
	}
	return nil
}

func CheckUserEntryLimit(currentCount, limit int) *ValidationError {
	if currentCount < limit {
		return nil
	}
	noun := "entries"
	if limit == 1 {
		noun = "entry"
	}
	return &ValidationError{
		Kind:    KindUserLimitReached,
		Message: fmt.Sprintf("you may submit at most %d %s to this contest", limit, noun),
	}
}

func CheckContestCapacity(currentTotal int, maxTotal *int) *ValidationError {
	if maxTotal == nil || currentTotal < *maxTotal {
		return nil
	}
	return &ValidationError{
		Kind:    KindContestFull,
		Message: "this contest has reached its maximum number of entries",
	}
}

// CheckContestOpen enforces status and deadline. The end boundary is
// inclusive: now equal to the deadline is still accepted.
func CheckContestOpen(active bool, endAt *time.Time, now time.Time) *ValidationError {
	if !active {
		return &ValidationError{
			Kind:    KindNotAcceptingEntries,
			Message: "this contest is not accepting entries",
		}
	}
	if endAt != nil && now.UTC().After(endAt.UTC()) {
		return &ValidationError{
			Kind:    KindContestEnded,
			Message: "this contest has ended",
		}
	}
	return nil
}
