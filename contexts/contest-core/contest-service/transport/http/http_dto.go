package http

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateContestRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	EntryFee          int64           `json:"entry_fee"`
	EntryLimitPerUser int             `json:"entry_limit_per_user"`
	MaxTotalEntries   *int            `json:"max_total_entries,omitempty"`
	AllowedRatings    uint            `json:"allowed_ratings"`
	EndAt             *time.Time      `json:"end_at,omitempty"`
	PrizePositions    json.RawMessage `json:"prize_positions,omitempty"`
	StartActive       bool            `json:"start_active,omitempty"`
}

type ActivateContestRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PrizePositionItem struct {
	Position   int     `json:"position"`
	Percentage float64 `json:"percentage"`
}

type ContestResponse struct {
	ContestID         string              `json:"contest_id"`
	ModeratorID       string              `json:"moderator_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description,omitempty"`
	EntryFee          int64               `json:"entry_fee"`
	EntryLimitPerUser int                 `json:"entry_limit_per_user"`
	MaxTotalEntries   *int                `json:"max_total_entries,omitempty"`
	AllowedRatings    uint                `json:"allowed_ratings"`
	EndAt             *time.Time          `json:"end_at,omitempty"`
	PrizePositions    []PrizePositionItem `json:"prize_positions"`
	Status            string              `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	Replayed          bool                `json:"replayed,omitempty"`
}

type ContestListResponse struct {
	Items []ContestResponse `json:"items"`
}

type StateHistoryItem struct {
	FromState    string    `json:"from_state,omitempty"`
	ToState      string    `json:"to_state"`
	ChangedBy    string    `json:"changed_by"`
	ChangeReason string    `json:"change_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type StateHistoryResponse struct {
	ContestID string             `json:"contest_id"`
	Items     []StateHistoryItem `json:"items"`
}
