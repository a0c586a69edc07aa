package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "crucible/contexts/contest-core/judging-engine/application"
	"crucible/contexts/contest-core/judging-engine/application/commands"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"
)

const (
	judgmentRecordedTopic        = "judgment.recorded"
	defaultJudgmentConsumerGroup = "judging-engine-judgment-recorded-cg"
)

// JudgmentConsumer folds judgment.recorded events into entry score
// aggregates. Events for contests that finalized mid-flight are dropped,
// not retried.
type JudgmentConsumer struct {
	Subscriber    ports.EventSubscriber
	Record        commands.RecordJudgmentUseCase
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c JudgmentConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("judgment.recorded consumer disabled by feature flag",
			"event", "judgment_consumer_disabled",
			"module", "contest-core/judging-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultJudgmentConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, judgmentRecordedTopic, group, c.handleJudgmentRecorded)
}

func (c JudgmentConsumer) handleJudgmentRecorded(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload struct {
		ContestID  string  `json:"contest_id"`
		EntryID    string  `json:"entry_id"`
		JudgeID    string  `json:"judge_id"`
		ScoreDelta float64 `json:"score_delta"`
		VoteDelta  int     `json:"vote_delta"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode judgment.recorded payload: %w", err)
	}
	if strings.TrimSpace(payload.ContestID) == "" || strings.TrimSpace(payload.EntryID) == "" {
		return fmt.Errorf("judgment.recorded payload missing contest_id or entry_id")
	}

	err := c.Record.Execute(ctx, commands.RecordJudgmentCommand{
		ContestID:  payload.ContestID,
		EntryID:    payload.EntryID,
		JudgeID:    payload.JudgeID,
		ScoreDelta: payload.ScoreDelta,
		VoteDelta:  payload.VoteDelta,
		EventID:    event.EventID,
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrContestNotJudgeable) {
			logger.Debug("judgment dropped for closed contest",
				"event", "judgment_dropped_closed_contest",
				"module", "contest-core/judging-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"contest_id", payload.ContestID,
			)
			return nil
		}
		logger.Error("judgment.recorded handling failed",
			"event", "judgment_consume_failed",
			"module", "contest-core/judging-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"contest_id", payload.ContestID,
			"entry_id", payload.EntryID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
