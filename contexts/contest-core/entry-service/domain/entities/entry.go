package entities

import (
	"strings"
	"time"

	"crucible/contexts/contest-core/entry-service/domain/valueobjects"
)

type Entry struct {
	EntryID       string
	ContestID     string
	UserID        string
	ImageID       string
	ContentRating valueobjects.RatingSet
	SubmittedAt   time.Time
	Score         float64
	VoteCount     int
	FinalPosition *int
	PrizeAmount   *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e Entry) ValidateCreate() bool {
	return strings.TrimSpace(e.ContestID) != "" &&
		strings.TrimSpace(e.UserID) != "" &&
		strings.TrimSpace(e.ImageID) != ""
}

// Frozen reports whether finalization has stamped this entry; frozen entries
// take no further score mutation.
func (e Entry) Frozen() bool {
	return e.FinalPosition != nil
}
