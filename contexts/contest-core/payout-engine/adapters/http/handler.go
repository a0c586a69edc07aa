package httpadapter

import (
	"context"
	"log/slog"

	"crucible/contexts/contest-core/payout-engine/application/commands"
	"crucible/contexts/contest-core/payout-engine/application/queries"
	httptransport "crucible/contexts/contest-core/payout-engine/transport/http"
)

type Handler struct {
	Finalize commands.FinalizeContestUseCase
	Cancel   commands.CancelContestUseCase
	Results  queries.ResultsUseCase
	Logger   *slog.Logger
}

// FinalizeContestHandler godoc
// @Summary Finalize an active contest
// @Description Ranks entries, distributes the prize pool, and completes the contest atomically.
// @Tags payout-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.FinalizationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/finalize [post]
func (h Handler) FinalizeContestHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	req httptransport.FinalizeContestRequest,
) (httptransport.FinalizationResponse, error) {
	result, err := h.Finalize.Execute(ctx, commands.FinalizeContestCommand{
		ContestID: contestID,
		ActorID:   actorID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.FinalizationResponse{}, err
	}
	winners := make([]httptransport.WinnerItem, 0, len(result.Winners))
	for _, winner := range result.Winners {
		winners = append(winners, httptransport.WinnerItem{
			Position: winner.Position,
			EntryID:  winner.EntryID,
			UserID:   winner.UserID,
			Amount:   winner.Amount,
		})
	}
	return httptransport.FinalizationResponse{
		ContestID:        result.ContestID,
		EntryCount:       result.EntryCount,
		TotalPool:        result.TotalPool,
		TotalDistributed: result.TotalDistributed,
		Retained:         result.Retained,
		Winners:          winners,
	}, nil
}

// CancelContestHandler godoc
// @Summary Cancel a contest and refund entry fees
// @Tags payout-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.CancellationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/cancel [post]
func (h Handler) CancelContestHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	req httptransport.CancelContestRequest,
) (httptransport.CancellationResponse, error) {
	result, err := h.Cancel.Execute(ctx, commands.CancelContestCommand{
		ContestID: contestID,
		ActorID:   actorID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.CancellationResponse{}, err
	}
	return httptransport.CancellationResponse{
		ContestID:       result.ContestID,
		RefundedEntries: result.RefundedEntries,
		TotalRefunded:   result.TotalRefunded,
	}, nil
}

// ContestResultsHandler godoc
// @Summary Final contest results
// @Tags payout-engine
// @Produce json
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.ResultsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/results [get]
func (h Handler) ContestResultsHandler(ctx context.Context, contestID string) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx, contestID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	items := make([]httptransport.ResultItem, 0, len(results.Entries))
	for _, entry := range results.Entries {
		items = append(items, httptransport.ResultItem{
			EntryID:       entry.EntryID,
			UserID:        entry.UserID,
			Score:         entry.Score,
			VoteCount:     entry.VoteCount,
			SubmittedAt:   entry.SubmittedAt,
			FinalPosition: entry.FinalPosition,
			PrizeAmount:   entry.PrizeAmount,
		})
	}
	return httptransport.ResultsResponse{
		ContestID: results.ContestID,
		Status:    results.Status,
		Items:     items,
	}, nil
}
