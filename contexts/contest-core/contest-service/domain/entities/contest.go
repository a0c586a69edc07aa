package entities

import (
	"strings"
	"time"
)

type ContestStatus string

const (
	ContestStatusPending   ContestStatus = "pending"
	ContestStatusActive    ContestStatus = "active"
	ContestStatusCompleted ContestStatus = "completed"
	ContestStatusCancelled ContestStatus = "cancelled"
)

// PrizePosition maps a final rank to the percentage of the collected pool paid
// to the entry holding that rank. Percentages are not required to sum to 100;
// an over-100 configuration is an operator mistake the engine preserves.
type PrizePosition struct {
	Position   int
	Percentage float64
}

type Contest struct {
	ContestID         string
	ModeratorID       string
	Title             string
	Description       string
	EntryFee          int64
	EntryLimitPerUser int
	MaxTotalEntries   *int
	AllowedRatings    uint
	EndAt             *time.Time
	PrizePositions    []PrizePosition
	Status            ContestStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ActivatedAt       *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
}

// AcceptsEntries reports whether a submission arriving at the given instant may
// enter the contest. The end boundary is inclusive: a submission at exactly
// EndAt is accepted, one nanosecond later is not.
func (c Contest) AcceptsEntries(now time.Time) bool {
	if c.Status != ContestStatusActive {
		return false
	}
	if c.EndAt == nil {
		return true
	}
	return !now.UTC().After(c.EndAt.UTC())
}

func (c Contest) IsTerminal() bool {
	return c.Status == ContestStatusCompleted || c.Status == ContestStatusCancelled
}

func (c Contest) ValidateBasics() bool {
	title := strings.TrimSpace(c.Title)
	return title != "" &&
		len(title) <= 200 &&
		strings.TrimSpace(c.ModeratorID) != "" &&
		c.EntryFee >= 0 &&
		c.EntryLimitPerUser >= 1 &&
		(c.MaxTotalEntries == nil || *c.MaxTotalEntries >= 1)
}

func IsSupportedStatus(value ContestStatus) bool {
	switch value {
	case ContestStatusPending, ContestStatusActive, ContestStatusCompleted, ContestStatusCancelled:
		return true
	default:
		return false
	}
}

// StateHistory is the audit row appended on every status transition.
type StateHistory struct {
	HistoryID    string
	ContestID    string
	FromState    ContestStatus
	ToState      ContestStatus
	ChangedBy    string
	ChangeReason string
	CreatedAt    time.Time
}
