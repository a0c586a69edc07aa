package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"crucible/contexts/contest-core/entry-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory entry backend. It also implements the unit of work:
// Execute holds the write lock for the whole callback and restores a snapshot
// when the callback fails, so a rejected submission leaves balances and
// entries untouched.
type Store struct {
	mu sync.Mutex

	entries     map[string]entities.Entry
	contests    map[string]ports.ContestProjection
	images      map[string]ports.ImageMetadata
	balances    map[string]int64
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		entries:     make(map[string]entities.Entry),
		contests:    make(map[string]ports.ContestProjection),
		images:      make(map[string]ports.ImageMetadata),
		balances:    make(map[string]int64),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) SetContest(contest ports.ContestProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.TrimSpace(contest.ContestID)] = contest
}

func (s *Store) SetImage(image ports.ImageMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[strings.TrimSpace(image.ImageID)] = image
}

func (s *Store) SetBalance(userID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[strings.TrimSpace(userID)] = amount
}

func (s *Store) Balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[strings.TrimSpace(userID)]
}

func (s *Store) Execute(_ context.Context, _ string, fn func(tx ports.TxContext) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entriesSnapshot := make(map[string]entities.Entry, len(s.entries))
	for id, entry := range s.entries {
		entriesSnapshot[id] = entry
	}
	balancesSnapshot := make(map[string]int64, len(s.balances))
	for id, balance := range s.balances {
		balancesSnapshot[id] = balance
	}
	outboxSnapshot := make(map[string]outboxRecord, len(s.outbox))
	for id, row := range s.outbox {
		outboxSnapshot[id] = row
	}

	if err := fn(&txStore{store: s}); err != nil {
		s.entries = entriesSnapshot
		s.balances = balancesSnapshot
		s.outbox = outboxSnapshot
		return err
	}
	return nil
}

func (s *Store) CreateEntry(ctx context.Context, entry entities.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createEntryLocked(ctx, entry)
}

func (s *Store) GetEntry(_ context.Context, entryID string) (entities.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[strings.TrimSpace(entryID)]
	if !ok {
		return entities.Entry{}, domainerrors.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEntriesByContestLocked(ctx, contestID)
}

func (s *Store) ListImageIDsByContest(ctx context.Context, contestID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listImageIDsByContestLocked(ctx, contestID)
}

func (s *Store) CountEntriesByUser(ctx context.Context, contestID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countEntriesByUserLocked(ctx, contestID, userID)
}

func (s *Store) CountEntriesByContest(ctx context.Context, contestID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countEntriesByContestLocked(ctx, contestID)
}

func (s *Store) GetContest(ctx context.Context, contestID string) (ports.ContestProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getContestLocked(ctx, contestID)
}

func (s *Store) GetImage(_ context.Context, imageID string) (ports.ImageMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[strings.TrimSpace(imageID)]
	if !ok {
		return ports.ImageMetadata{}, domainerrors.ErrImageNotFound
	}
	return image, nil
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(ctx, userID, amount)
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditLocked(ctx, userID, amount)
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
		if existing.RequestHash != record.RequestHash || existing.EntryID != record.EntryID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		EntryID:     strings.TrimSpace(record.EntryID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendOutboxLocked(ctx, envelope)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
		return domainerrors.ErrEntryConflict
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

func (s *Store) createEntryLocked(_ context.Context, entry entities.Entry) error {
	entryID := strings.TrimSpace(entry.EntryID)
	if _, exists := s.entries[entryID]; exists {
		return domainerrors.ErrEntryConflict
	}
	s.entries[entryID] = entry
	return nil
}

func (s *Store) listEntriesByContestLocked(_ context.Context, contestID string) ([]entities.Entry, error) {
	contestID = strings.TrimSpace(contestID)
	items := make([]entities.Entry, 0)
	for _, entry := range s.entries {
		if entry.ContestID == contestID {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) listImageIDsByContestLocked(_ context.Context, contestID string) ([]string, error) {
	contestID = strings.TrimSpace(contestID)
	imageIDs := make([]string, 0)
	for _, entry := range s.entries {
		if entry.ContestID == contestID {
			imageIDs = append(imageIDs, entry.ImageID)
		}
	}
	sort.Strings(imageIDs)
	return imageIDs, nil
}

func (s *Store) countEntriesByUserLocked(_ context.Context, contestID, userID string) (int, error) {
	contestID = strings.TrimSpace(contestID)
	userID = strings.TrimSpace(userID)
	count := 0
	for _, entry := range s.entries {
		if entry.ContestID == contestID && entry.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) countEntriesByContestLocked(_ context.Context, contestID string) (int, error) {
	contestID = strings.TrimSpace(contestID)
	count := 0
	for _, entry := range s.entries {
		if entry.ContestID == contestID {
			count++
		}
	}
	return count, nil
}

func (s *Store) getContestLocked(_ context.Context, contestID string) (ports.ContestProjection, error) {
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return ports.ContestProjection{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) debitLocked(_ context.Context, userID string, amount int64) error {
	userID = strings.TrimSpace(userID)
	if s.balances[userID] < amount {
		return domainerrors.ErrInsufficientBalance
	}
	s.balances[userID] -= amount
	return nil
}

func (s *Store) creditLocked(_ context.Context, userID string, amount int64) error {
	s.balances[strings.TrimSpace(userID)] += amount
	return nil
}

func (s *Store) appendOutboxLocked(_ context.Context, envelope ports.EventEnvelope) error {
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
			return domainerrors.ErrEntryConflict
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

// txStore funnels transactional calls back into the store without re-locking;
// Execute already holds the mutex while the callback runs.
type txStore struct {
	store *Store
}

func (t *txStore) Entries() ports.EntryRepository { return txEntries{store: t.store} }
func (t *txStore) Contests() ports.ContestReader  { return txContests{store: t.store} }
func (t *txStore) Ledger() ports.Ledger           { return txLedger{store: t.store} }
func (t *txStore) Outbox() ports.OutboxWriter     { return txOutbox{store: t.store} }

type txEntries struct{ store *Store }

func (r txEntries) CreateEntry(ctx context.Context, entry entities.Entry) error {
	return r.store.createEntryLocked(ctx, entry)
}

func (r txEntries) GetEntry(_ context.Context, entryID string) (entities.Entry, error) {
	entry, ok := r.store.entries[strings.TrimSpace(entryID)]
	if !ok {
		return entities.Entry{}, domainerrors.ErrEntryNotFound
	}
	return entry, nil
}

func (r txEntries) ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error) {
	return r.store.listEntriesByContestLocked(ctx, contestID)
}

func (r txEntries) ListImageIDsByContest(ctx context.Context, contestID string) ([]string, error) {
	return r.store.listImageIDsByContestLocked(ctx, contestID)
}

func (r txEntries) CountEntriesByUser(ctx context.Context, contestID, userID string) (int, error) {
	return r.store.countEntriesByUserLocked(ctx, contestID, userID)
}

func (r txEntries) CountEntriesByContest(ctx context.Context, contestID string) (int, error) {
	return r.store.countEntriesByContestLocked(ctx, contestID)
}

type txContests struct{ store *Store }

func (r txContests) GetContest(ctx context.Context, contestID string) (ports.ContestProjection, error) {
	return r.store.getContestLocked(ctx, contestID)
}

type txLedger struct{ store *Store }

func (l txLedger) Debit(ctx context.Context, userID string, amount int64) error {
	return l.store.debitLocked(ctx, userID, amount)
}

func (l txLedger) Credit(ctx context.Context, userID string, amount int64) error {
	return l.store.creditLocked(ctx, userID, amount)
}

type txOutbox struct{ store *Store }

func (o txOutbox) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return o.store.appendOutboxLocked(ctx, envelope)
}
