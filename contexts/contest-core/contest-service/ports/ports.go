package ports

import (
	"context"
	"time"

	"crucible/contexts/contest-core/contest-service/domain/entities"
	contractsv1 "crucible/contracts/gen/events/v1"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, contest entities.Contest) error
	GetContest(ctx context.Context, contestID string) (entities.Contest, error)
	UpdateContest(ctx context.Context, contest entities.Contest) error
	ListContestsByStatus(ctx context.Context, status entities.ContestStatus, limit int) ([]entities.Contest, error)
}

type HistoryRepository interface {
	AppendState(ctx context.Context, history entities.StateHistory) error
	ListStateHistory(ctx context.Context, contestID string) ([]entities.StateHistory, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ContestID   string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher hands envelopes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
