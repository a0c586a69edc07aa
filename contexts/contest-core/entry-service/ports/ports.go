package ports

import (
	"context"
	"time"

	"crucible/contexts/contest-core/entry-service/domain/entities"
	contractsv1 "crucible/contracts/gen/events/v1"
)

// ContestProjection is the read-model slice of a contest that submission
// validation needs; the contest service owns the full record.
type ContestProjection struct {
	ContestID         string
	Status            string
	EntryFee          int64
	EntryLimitPerUser int
	MaxTotalEntries   *int
	AllowedRatings    uint
	EndAt             *time.Time
}

// ImageMetadata is returned by the external image metadata provider.
type ImageMetadata struct {
	ImageID       string
	OwnerID       string
	ContentRating uint
}

type EntryRepository interface {
	CreateEntry(ctx context.Context, entry entities.Entry) error
	GetEntry(ctx context.Context, entryID string) (entities.Entry, error)
	ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error)
	ListImageIDsByContest(ctx context.Context, contestID string) ([]string, error)
	CountEntriesByUser(ctx context.Context, contestID string, userID string) (int, error)
	CountEntriesByContest(ctx context.Context, contestID string) (int, error)
}

type ContestReader interface {
	GetContest(ctx context.Context, contestID string) (ContestProjection, error)
}

type ImageMetadataProvider interface {
	GetImage(ctx context.Context, imageID string) (ImageMetadata, error)
}

// Ledger is the virtual-currency collaborator. Implementations must take part
// in the surrounding unit of work or provide a compensating-action guarantee.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int64) error
	Credit(ctx context.Context, userID string, amount int64) error
}

// TxContext exposes the repositories bound to one transactional scope.
type TxContext interface {
	Entries() EntryRepository
	Contests() ContestReader
	Ledger() Ledger
	Outbox() OutboxWriter
}

// UnitOfWork serializes work per contest: Execute acquires the contest row
// lock, runs fn, and commits only if fn returns nil. Any error rolls the
// whole scope back, ledger moves included.
type UnitOfWork interface {
	Execute(ctx context.Context, contestID string, fn func(tx TxContext) error) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	EntryID     string
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
