package httpadapter

import (
	"context"
	"log/slog"

	"crucible/contexts/contest-core/contest-service/application/commands"
	"crucible/contexts/contest-core/contest-service/application/queries"
	"crucible/contexts/contest-core/contest-service/domain/entities"
	httptransport "crucible/contexts/contest-core/contest-service/transport/http"
)

type Handler struct {
	Create   commands.CreateContestUseCase
	Activate commands.ActivateContestUseCase
	Contests queries.ContestUseCase
	Logger   *slog.Logger
}

// CreateContestHandler godoc
// @Summary Create a contest
// @Description Creates a contest in pending or active status with a validated prize split.
// @Tags contest-service
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.CreateContestRequest true "Contest definition"
// @Success 201 {object} httptransport.ContestResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /contests [post]
func (h Handler) CreateContestHandler(
	ctx context.Context,
	moderatorID string,
	idempotencyKey string,
	req httptransport.CreateContestRequest,
) (httptransport.ContestResponse, error) {
	result, err := h.Create.Execute(ctx, commands.CreateContestCommand{
		ModeratorID:       moderatorID,
		IdempotencyKey:    idempotencyKey,
		Title:             req.Title,
		Description:       req.Description,
		EntryFee:          req.EntryFee,
		EntryLimitPerUser: req.EntryLimitPerUser,
		MaxTotalEntries:   req.MaxTotalEntries,
		AllowedRatings:    req.AllowedRatings,
		EndAt:             req.EndAt,
		PrizeConfig:       req.PrizePositions,
		StartActive:       req.StartActive,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	response := mapContest(result.Contest)
	response.Replayed = result.Replayed
	return response, nil
}

// ActivateContestHandler godoc
// @Summary Activate a pending contest
// @Tags contest-service
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.ContestResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/activate [post]
func (h Handler) ActivateContestHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	req httptransport.ActivateContestRequest,
) (httptransport.ContestResponse, error) {
	contest, err := h.Activate.Execute(ctx, commands.ActivateContestCommand{
		ContestID: contestID,
		ActorID:   actorID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

// GetContestHandler godoc
// @Summary Get contest details
// @Tags contest-service
// @Produce json
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.ContestResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id} [get]
func (h Handler) GetContestHandler(ctx context.Context, contestID string) (httptransport.ContestResponse, error) {
	contest, err := h.Contests.GetContest(ctx, contestID)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

// ListContestsHandler godoc
// @Summary List contests by status
// @Tags contest-service
// @Produce json
// @Param status query string false "Contest status filter"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ContestListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /contests [get]
func (h Handler) ListContestsHandler(
	ctx context.Context,
	status string,
	limit int,
) (httptransport.ContestListResponse, error) {
	contests, err := h.Contests.ListContests(ctx, entities.ContestStatus(status), limit)
	if err != nil {
		return httptransport.ContestListResponse{}, err
	}
	items := make([]httptransport.ContestResponse, 0, len(contests))
	for _, contest := range contests {
		items = append(items, mapContest(contest))
	}
	return httptransport.ContestListResponse{Items: items}, nil
}

// StateHistoryHandler godoc
// @Summary Contest state transition history
// @Tags contest-service
// @Produce json
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.StateHistoryResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/history [get]
func (h Handler) StateHistoryHandler(ctx context.Context, contestID string) (httptransport.StateHistoryResponse, error) {
	rows, err := h.Contests.StateHistory(ctx, contestID)
	if err != nil {
		return httptransport.StateHistoryResponse{}, err
	}
	items := make([]httptransport.StateHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.StateHistoryItem{
			FromState:    string(row.FromState),
			ToState:      string(row.ToState),
			ChangedBy:    row.ChangedBy,
			ChangeReason: row.ChangeReason,
			CreatedAt:    row.CreatedAt,
		})
	}
	return httptransport.StateHistoryResponse{
		ContestID: contestID,
		Items:     items,
	}, nil
}

func mapContest(contest entities.Contest) httptransport.ContestResponse {
	positions := make([]httptransport.PrizePositionItem, 0, len(contest.PrizePositions))
	for _, item := range contest.PrizePositions {
		positions = append(positions, httptransport.PrizePositionItem{
			Position:   item.Position,
			Percentage: item.Percentage,
		})
	}
	return httptransport.ContestResponse{
		ContestID:         contest.ContestID,
		ModeratorID:       contest.ModeratorID,
		Title:             contest.Title,
		Description:       contest.Description,
		EntryFee:          contest.EntryFee,
		EntryLimitPerUser: contest.EntryLimitPerUser,
		MaxTotalEntries:   contest.MaxTotalEntries,
		AllowedRatings:    contest.AllowedRatings,
		EndAt:             contest.EndAt,
		PrizePositions:    positions,
		Status:            string(contest.Status),
		CreatedAt:         contest.CreatedAt,
	}
}
