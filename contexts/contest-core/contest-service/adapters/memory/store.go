package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	"crucible/contexts/contest-core/contest-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	contests    map[string]entities.Contest
	history     map[string][]entities.StateHistory
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

func NewStore(seed []entities.Contest) *Store {
	contests := make(map[string]entities.Contest, len(seed))
	for _, contest := range seed {
		contests[contest.ContestID] = contest
	}
	return &Store{
		contests:    contests,
		history:     make(map[string][]entities.StateHistory),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) SetContest(contest entities.Contest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.TrimSpace(contest.ContestID)] = contest
}

func (s *Store) CreateContest(_ context.Context, contest entities.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contestID := strings.TrimSpace(contest.ContestID)
	if _, exists := s.contests[contestID]; exists {
		return domainerrors.ErrContestConflict
	}
	s.contests[contestID] = contest
	return nil
}

func (s *Store) GetContest(_ context.Context, contestID string) (entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) UpdateContest(_ context.Context, contest entities.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contestID := strings.TrimSpace(contest.ContestID)
	if _, ok := s.contests[contestID]; !ok {
		return domainerrors.ErrContestNotFound
	}
	s.contests[contestID] = contest
	return nil
}

func (s *Store) ListContestsByStatus(
	_ context.Context,
	status entities.ContestStatus,
	limit int,
) ([]entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.Contest, 0)
	for _, contest := range s.contests {
		if status == "" || contest.Status == status {
			items = append(items, contest)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendState(_ context.Context, history entities.StateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contestID := strings.TrimSpace(history.ContestID)
	s.history[contestID] = append(s.history[contestID], history)
	return nil
}

func (s *Store) ListStateHistory(_ context.Context, contestID string) ([]entities.StateHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]entities.StateHistory(nil), s.history[strings.TrimSpace(contestID)]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	existing, exists := s.idempotency[key]
	if exists {
		if existing.RequestHash != record.RequestHash || existing.ContestID != record.ContestID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		ContestID:   strings.TrimSpace(record.ContestID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrContestConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrContestConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
