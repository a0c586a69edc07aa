package ports

import (
	"context"
	"time"

	"crucible/contexts/contest-core/judging-engine/domain/entities"
	contractsv1 "crucible/contracts/gen/events/v1"
)

// ContestProjection carries the contest fields judging needs.
type ContestProjection struct {
	ContestID string
	Status    string
}

type ContestReader interface {
	GetContest(ctx context.Context, contestID string) (ContestProjection, error)
}

// EntryScoreRepository owns the score aggregates. ApplyJudgment must add the
// deltas atomically at the storage layer so concurrent judgments for the same
// entry never lose an increment. Frozen entries reject further mutation.
type EntryScoreRepository interface {
	ApplyJudgment(ctx context.Context, contestID, entryID string, scoreDelta float64, voteDelta int) error
	GetEntryScore(ctx context.Context, entryID string) (entities.EntryScore, error)
	ListEntryScoresByContest(ctx context.Context, contestID string) ([]entities.EntryScore, error)
}

// JudgmentRepository is the append-only audit trail of scoring signals.
type JudgmentRepository interface {
	RecordJudgment(ctx context.Context, judgment entities.Judgment) error
}

// EventDedupStore reserves event ids so replayed bus deliveries apply once.
// ReserveEvent returns false when the id was already seen.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, seenAt time.Time) (bool, error)
}

// StandingsCache is a read-through cache for computed leaderboards. A miss
// returns found=false; Invalidate is best effort.
type StandingsCache interface {
	GetStandings(ctx context.Context, contestID string) ([]entities.Standing, bool, error)
	PutStandings(ctx context.Context, contestID string, standings []entities.Standing, ttl time.Duration) error
	Invalidate(ctx context.Context, contestID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

// EventSubscriber delivers judging events from the bus. Delivery preserves
// the broker's per-partition ordering within a consumer group.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
