package httpadapter

import (
	"context"
	"log/slog"

	"crucible/contexts/contest-core/judging-engine/application/commands"
	"crucible/contexts/contest-core/judging-engine/application/queries"
	httptransport "crucible/contexts/contest-core/judging-engine/transport/http"
)

type Handler struct {
	Record    commands.RecordJudgmentUseCase
	Standings queries.StandingsUseCase
	Logger    *slog.Logger
}

// RecordJudgmentHandler godoc
// @Summary Record a judgment against an entry
// @Description Applies score and vote deltas to an active contest entry.
// @Tags judging-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.RecordJudgmentRequest true "Judgment"
// @Success 204 {object} nil
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /judgments [post]
func (h Handler) RecordJudgmentHandler(
	ctx context.Context,
	judgeID string,
	req httptransport.RecordJudgmentRequest,
) error {
	return h.Record.Execute(ctx, commands.RecordJudgmentCommand{
		ContestID:  req.ContestID,
		EntryID:    req.EntryID,
		JudgeID:    judgeID,
		ScoreDelta: req.ScoreDelta,
		VoteDelta:  req.VoteDelta,
		EventID:    req.EventID,
	})
}

// StandingsHandler godoc
// @Summary Live contest standings
// @Tags judging-engine
// @Produce json
// @Param contest_id path string true "Contest id"
// @Success 200 {object} httptransport.StandingsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /contests/{contest_id}/standings [get]
func (h Handler) StandingsHandler(ctx context.Context, contestID string) (httptransport.StandingsResponse, error) {
	standings, err := h.Standings.Standings(ctx, contestID)
	if err != nil {
		return httptransport.StandingsResponse{}, err
	}
	items := make([]httptransport.StandingItem, 0, len(standings))
	for _, standing := range standings {
		items = append(items, httptransport.StandingItem{
			Rank:        standing.Rank,
			EntryID:     standing.EntryID,
			UserID:      standing.UserID,
			Score:       standing.Score,
			VoteCount:   standing.VoteCount,
			SubmittedAt: standing.SubmittedAt,
		})
	}
	return httptransport.StandingsResponse{
		ContestID: contestID,
		Items:     items,
	}, nil
}
