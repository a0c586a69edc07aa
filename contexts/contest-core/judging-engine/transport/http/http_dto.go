package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordJudgmentRequest struct {
	ContestID  string  `json:"contest_id"`
	EntryID    string  `json:"entry_id"`
	ScoreDelta float64 `json:"score_delta"`
	VoteDelta  int     `json:"vote_delta"`
	EventID    string  `json:"event_id,omitempty"`
}

type StandingItem struct {
	Rank        int       `json:"rank"`
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	Score       float64   `json:"score"`
	VoteCount   int       `json:"vote_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type StandingsResponse struct {
	ContestID string         `json:"contest_id"`
	Items     []StandingItem `json:"items"`
}
