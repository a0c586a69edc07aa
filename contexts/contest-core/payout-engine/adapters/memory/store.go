package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type stateRecord struct {
	FromStatus string
	ToStatus   string
	ChangedBy  string
	Reason     string
	ChangedAt  time.Time
}

// Store is the in-memory payout backend. Execute holds the write lock for
// the whole callback and restores a snapshot when the callback fails, so a
// partial settlement never leaks.
type Store struct {
	mu sync.Mutex

	contests map[string]ports.ContestRecord
	entries  map[string]entryRow
	balances map[string]int64
	history  map[string][]stateRecord
	outbox   map[string]outboxRecord

	creditCalls    int
	failCreditUser string
}

type entryRow struct {
	record    ports.EntryRecord
	contestID string
}

func NewStore() *Store {
	return &Store{
		contests: make(map[string]ports.ContestRecord),
		entries:  make(map[string]entryRow),
		balances: make(map[string]int64),
		history:  make(map[string][]stateRecord),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) SetContest(contest ports.ContestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.TrimSpace(contest.ContestID)] = contest
}

func (s *Store) SetEntry(contestID string, entry ports.EntryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.TrimSpace(entry.EntryID)] = entryRow{
		record:    entry,
		contestID: strings.TrimSpace(contestID),
	}
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

// FailCreditFor makes every credit to the given user fail, for exercising
// rollback paths.
func (s *Store) FailCreditFor(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreditUser = strings.TrimSpace(userID)
}

func (s *Store) CreditCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditCalls
}

func (s *Store) StateHistory(contestID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.history[strings.TrimSpace(contestID)]
	transitions := make([]string, 0, len(rows))
	for _, row := range rows {
		transitions = append(transitions, row.FromStatus+"->"+row.ToStatus)
	}
	return transitions
}

func (s *Store) Execute(_ context.Context, _ string, fn func(tx ports.TxContext) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contestsSnapshot := make(map[string]ports.ContestRecord, len(s.contests))
	for id, contest := range s.contests {
		contestsSnapshot[id] = contest
	}
	entriesSnapshot := make(map[string]entryRow, len(s.entries))
	for id, row := range s.entries {
		entriesSnapshot[id] = row
	}
	balancesSnapshot := make(map[string]int64, len(s.balances))
	for id, balance := range s.balances {
		balancesSnapshot[id] = balance
	}
	outboxSnapshot := make(map[string]outboxRecord, len(s.outbox))
	for id, row := range s.outbox {
		outboxSnapshot[id] = row
	}
	creditCallsSnapshot := s.creditCalls

	if err := fn(&txStore{store: s}); err != nil {
		s.contests = contestsSnapshot
		s.entries = entriesSnapshot
		s.balances = balancesSnapshot
		s.outbox = outboxSnapshot
		s.creditCalls = creditCallsSnapshot
		return err
	}
	return nil
}

func (s *Store) GetContest(ctx context.Context, contestID string) (ports.ContestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getContestLocked(ctx, contestID)
}

func (s *Store) SetContestStatus(
	ctx context.Context,
	contestID, fromStatus, toStatus, changedBy, reason string,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setContestStatusLocked(ctx, contestID, fromStatus, toStatus, changedBy, reason, at)
}

func (s *Store) ListEntriesByContest(ctx context.Context, contestID string) ([]ports.EntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEntriesLocked(ctx, contestID)
}

func (s *Store) SetEntryResult(
	ctx context.Context,
	entryID string,
	finalPosition int,
	prizeAmount int64,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setEntryResultLocked(ctx, entryID, finalPosition, prizeAmount, at)
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditLocked(ctx, userID, amount)
}

func (s *Store) ListActiveContestsPastDeadline(
	_ context.Context,
	now time.Time,
	limit int,
) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	due := make([]string, 0)
	for _, contest := range s.contests {
		if !strings.EqualFold(contest.Status, "active") || contest.EndAt == nil {
			continue
		}
		if contest.EndAt.UTC().After(now.UTC()) {
			continue
		}
		due = append(due, contest.ContestID)
	}
	sort.Strings(due)
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
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
		return domainerrors.ErrContestNotFound
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

func (s *Store) getContestLocked(_ context.Context, contestID string) (ports.ContestRecord, error) {
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return ports.ContestRecord{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) setContestStatusLocked(
	_ context.Context,
	contestID, fromStatus, toStatus, changedBy, reason string,
	at time.Time,
) error {
	contestID = strings.TrimSpace(contestID)
	contest, ok := s.contests[contestID]
	if !ok {
		return domainerrors.ErrContestNotFound
	}
	contest.Status = toStatus
	s.contests[contestID] = contest
	s.history[contestID] = append(s.history[contestID], stateRecord{
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  at.UTC(),
	})
	return nil
}

func (s *Store) listEntriesLocked(_ context.Context, contestID string) ([]ports.EntryRecord, error) {
	contestID = strings.TrimSpace(contestID)
	items := make([]ports.EntryRecord, 0)
	for _, row := range s.entries {
		if row.contestID == contestID {
			items = append(items, row.record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) setEntryResultLocked(
	_ context.Context,
	entryID string,
	finalPosition int,
	prizeAmount int64,
	_ time.Time,
) error {
	entryID = strings.TrimSpace(entryID)
	row, ok := s.entries[entryID]
	if !ok {
		return domainerrors.ErrContestNotFound
	}
	position := finalPosition
	amount := prizeAmount
	row.record.FinalPosition = &position
	row.record.PrizeAmount = &amount
	s.entries[entryID] = row
	return nil
}

func (s *Store) creditLocked(_ context.Context, userID string, amount int64) error {
	s.creditCalls++
	userID = strings.TrimSpace(userID)
	if s.failCreditUser != "" && s.failCreditUser == userID {
		return errors.New("ledger credit refused")
	}
	s.balances[userID] += amount
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
			return domainerrors.ErrInvalidPrizeInput
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

func (t *txStore) Contests() ports.ContestStore { return txContests{store: t.store} }
func (t *txStore) Entries() ports.EntryStore    { return txEntries{store: t.store} }
func (t *txStore) Ledger() ports.Ledger         { return txLedger{store: t.store} }
func (t *txStore) Outbox() ports.OutboxWriter   { return txOutbox{store: t.store} }

type txContests struct{ store *Store }

func (r txContests) GetContest(ctx context.Context, contestID string) (ports.ContestRecord, error) {
	return r.store.getContestLocked(ctx, contestID)
}

func (r txContests) SetContestStatus(
	ctx context.Context,
	contestID, fromStatus, toStatus, changedBy, reason string,
	at time.Time,
) error {
	return r.store.setContestStatusLocked(ctx, contestID, fromStatus, toStatus, changedBy, reason, at)
}

type txEntries struct{ store *Store }

func (r txEntries) ListEntriesByContest(ctx context.Context, contestID string) ([]ports.EntryRecord, error) {
	return r.store.listEntriesLocked(ctx, contestID)
}

func (r txEntries) SetEntryResult(
	ctx context.Context,
	entryID string,
	finalPosition int,
	prizeAmount int64,
	at time.Time,
) error {
	return r.store.setEntryResultLocked(ctx, entryID, finalPosition, prizeAmount, at)
}

type txLedger struct{ store *Store }

func (l txLedger) Credit(ctx context.Context, userID string, amount int64) error {
	return l.store.creditLocked(ctx, userID, amount)
}

type txOutbox struct{ store *Store }

func (o txOutbox) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return o.store.appendOutboxLocked(ctx, envelope)
}
