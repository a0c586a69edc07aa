package entities

import (
	"strings"
	"time"
)

// Judgment is one scoring signal against a contest entry. Deltas are signed:
// a retracted vote arrives as a negative pair.
type Judgment struct {
	JudgmentID string
	ContestID  string
	EntryID    string
	JudgeID    string
	ScoreDelta float64
	VoteDelta  int
	OccurredAt time.Time
}

func (j Judgment) ValidateBasics() bool {
	return strings.TrimSpace(j.ContestID) != "" &&
		strings.TrimSpace(j.EntryID) != ""
}

// EntryScore is the aggregate judging state of one entry.
type EntryScore struct {
	EntryID     string
	ContestID   string
	UserID      string
	Score       float64
	VoteCount   int
	SubmittedAt time.Time
	Frozen      bool
}

// Standing is one row of the live leaderboard.
type Standing struct {
	Rank        int
	EntryID     string
	UserID      string
	Score       float64
	VoteCount   int
	SubmittedAt time.Time
}
