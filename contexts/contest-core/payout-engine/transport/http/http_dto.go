package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FinalizeContestRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CancelContestRequest struct {
	Reason string `json:"reason,omitempty"`
}

type WinnerItem struct {
	Position int    `json:"position"`
	EntryID  string `json:"entry_id"`
	UserID   string `json:"user_id"`
	Amount   int64  `json:"amount"`
}

type FinalizationResponse struct {
	ContestID        string       `json:"contest_id"`
	EntryCount       int          `json:"entry_count"`
	TotalPool        int64        `json:"total_pool"`
	TotalDistributed int64        `json:"total_distributed"`
	Retained         int64        `json:"retained"`
	Winners          []WinnerItem `json:"winners"`
}

type CancellationResponse struct {
	ContestID       string `json:"contest_id"`
	RefundedEntries int    `json:"refunded_entries"`
	TotalRefunded   int64  `json:"total_refunded"`
}

type ResultItem struct {
	EntryID       string    `json:"entry_id"`
	UserID        string    `json:"user_id"`
	Score         float64   `json:"score"`
	VoteCount     int       `json:"vote_count"`
	SubmittedAt   time.Time `json:"submitted_at"`
	FinalPosition *int      `json:"final_position,omitempty"`
	PrizeAmount   *int64    `json:"prize_amount,omitempty"`
}

type ResultsResponse struct {
	ContestID string       `json:"contest_id"`
	Status    string       `json:"status"`
	Items     []ResultItem `json:"items"`
}
