package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitEntryRequest struct {
	ContestID string `json:"contest_id"`
	ImageID   string `json:"image_id"`
}

type EntryResponse struct {
	EntryID       string    `json:"entry_id"`
	ContestID     string    `json:"contest_id"`
	UserID        string    `json:"user_id"`
	ImageID       string    `json:"image_id"`
	ContentRating uint      `json:"content_rating"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Score         float64   `json:"score"`
	VoteCount     int       `json:"vote_count"`
	FinalPosition *int      `json:"final_position,omitempty"`
	PrizeAmount   *int64    `json:"prize_amount,omitempty"`
	Replayed      bool      `json:"replayed,omitempty"`
}

type EntryListResponse struct {
	ContestID string          `json:"contest_id"`
	Items     []EntryResponse `json:"items"`
}

// ValidationFailureResponse reports a structured submission rejection so
// clients can show the user which rule failed.
type ValidationFailureResponse struct {
	Valid     bool   `json:"valid"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}
