package httpadapter

import (
	"context"
	"log/slog"

	"crucible/contexts/contest-core/entry-service/application/commands"
	"crucible/contexts/contest-core/entry-service/application/queries"
	"crucible/contexts/contest-core/entry-service/domain/entities"
	httptransport "crucible/contexts/contest-core/entry-service/transport/http"
)

type Handler struct {
	Submit  commands.SubmitEntryUseCase
	Entries queries.EntryUseCase
	Logger  *slog.Logger
}

// SubmitEntryHandler godoc
// @Summary Submit an image to a contest
// @Description Validates the submission, debits the entry fee, and records the entry atomically.
// @Tags entry-service
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.SubmitEntryRequest true "Submission"
// @Success 201 {object} httptransport.EntryResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ValidationFailureResponse
// @Router /entries [post]
func (h Handler) SubmitEntryHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.SubmitEntryRequest,
) (httptransport.EntryResponse, error) {
	result, err := h.Submit.Execute(ctx, commands.SubmitEntryCommand{
		ContestID:      req.ContestID,
		UserID:         userID,
		ImageID:        req.ImageID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.EntryResponse{}, err
	}
	response := mapEntry(result.Entry)
	response.Replayed = result.Replayed
	return response, nil
}

// GetEntryHandler godoc
// @Summary Get entry details
// @Tags entry-service
// @Produce json
// @Param entry_id path string true "Entry id"
// @Success 200 {object} httptransport.EntryResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /entries/{entry_id} [get]
func (h Handler) GetEntryHandler(ctx context.Context, entryID string) (httptransport.EntryResponse, error) {
	entry, err := h.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return httptransport.EntryResponse{}, err
	}
	return mapEntry(entry), nil
}

// ListContestEntriesHandler godoc
// @Summary List entries for a contest
// @Tags entry-service
// @Produce json
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.EntryListResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/entries [get]
func (h Handler) ListContestEntriesHandler(
	ctx context.Context,
	contestID string,
) (httptransport.EntryListResponse, error) {
	entries, err := h.Entries.ListContestEntries(ctx, contestID)
	if err != nil {
		return httptransport.EntryListResponse{}, err
	}
	items := make([]httptransport.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mapEntry(entry))
	}
	return httptransport.EntryListResponse{
		ContestID: contestID,
		Items:     items,
	}, nil
}

func mapEntry(entry entities.Entry) httptransport.EntryResponse {
	return httptransport.EntryResponse{
		EntryID:       entry.EntryID,
		ContestID:     entry.ContestID,
		UserID:        entry.UserID,
		ImageID:       entry.ImageID,
		ContentRating: uint(entry.ContentRating),
		SubmittedAt:   entry.SubmittedAt,
		Score:         entry.Score,
		VoteCount:     entry.VoteCount,
		FinalPosition: entry.FinalPosition,
		PrizeAmount:   entry.PrizeAmount,
	}
}
