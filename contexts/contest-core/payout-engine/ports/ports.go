package ports

import (
	"context"
	"time"

	"crucible/contexts/contest-core/payout-engine/domain/services"
	contractsv1 "crucible/contracts/gen/events/v1"
)

// ContestRecord is the payout view of a contest.
type ContestRecord struct {
	ContestID   string
	ModeratorID string
	Status      string
	EntryFee    int64
	EndAt       *time.Time
	PrizeSplits []services.PrizeSplit
}

// EntryRecord is the payout view of an entry.
type EntryRecord struct {
	EntryID       string
	UserID        string
	Score         float64
	VoteCount     int
	SubmittedAt   time.Time
	FinalPosition *int
	PrizeAmount   *int64
}

type ContestStore interface {
	GetContest(ctx context.Context, contestID string) (ContestRecord, error)
	// SetContestStatus records the transition on the contest row and appends
	// it to the state history in the same scope.
	SetContestStatus(ctx context.Context, contestID, fromStatus, toStatus, changedBy, reason string, at time.Time) error
}

type EntryStore interface {
	ListEntriesByContest(ctx context.Context, contestID string) ([]EntryRecord, error)
	SetEntryResult(ctx context.Context, entryID string, finalPosition int, prizeAmount int64, at time.Time) error
}

type Ledger interface {
	Credit(ctx context.Context, userID string, amount int64) error
}

// TxContext exposes the stores bound to one transactional scope.
type TxContext interface {
	Contests() ContestStore
	Entries() EntryStore
	Ledger() Ledger
	Outbox() OutboxWriter
}

// UnitOfWork serializes settlement per contest: Execute acquires the contest
// row lock, runs fn, and commits only when fn returns nil.
type UnitOfWork interface {
	Execute(ctx context.Context, contestID string, fn func(tx TxContext) error) error
}

// ContestFinder feeds the deadline sweep.
type ContestFinder interface {
	ListActiveContestsPastDeadline(ctx context.Context, now time.Time, limit int) ([]string, error)
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
