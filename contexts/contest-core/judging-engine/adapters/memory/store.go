package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"crucible/contexts/contest-core/judging-engine/domain/entities"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	contests  map[string]ports.ContestProjection
	scores    map[string]entities.EntryScore
	judgments []entities.Judgment
	dedup     map[string]time.Time
	standings map[string][]entities.Standing
}

func NewStore() *Store {
	return &Store{
		contests:  make(map[string]ports.ContestProjection),
		scores:    make(map[string]entities.EntryScore),
		dedup:     make(map[string]time.Time),
		standings: make(map[string][]entities.Standing),
	}
}

func (s *Store) SetContest(contest ports.ContestProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.TrimSpace(contest.ContestID)] = contest
}

func (s *Store) SetEntryScore(score entities.EntryScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[strings.TrimSpace(score.EntryID)] = score
}

func (s *Store) Judgments() []entities.Judgment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Judgment(nil), s.judgments...)
}

func (s *Store) GetContest(_ context.Context, contestID string) (ports.ContestProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return ports.ContestProjection{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) ApplyJudgment(
	_ context.Context,
	contestID, entryID string,
	scoreDelta float64,
	voteDelta int,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.scores[strings.TrimSpace(entryID)]
	if !ok || score.ContestID != strings.TrimSpace(contestID) {
		return domainerrors.ErrEntryNotFound
	}
	if score.Frozen {
		return domainerrors.ErrContestNotJudgeable
	}
	score.Score += scoreDelta
	score.VoteCount += voteDelta
	s.scores[strings.TrimSpace(entryID)] = score
	return nil
}

func (s *Store) GetEntryScore(_ context.Context, entryID string) (entities.EntryScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[strings.TrimSpace(entryID)]
	if !ok {
		return entities.EntryScore{}, domainerrors.ErrEntryNotFound
	}
	return score, nil
}

func (s *Store) ListEntryScoresByContest(_ context.Context, contestID string) ([]entities.EntryScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.EntryScore, 0)
	for _, score := range s.scores {
		if score.ContestID == strings.TrimSpace(contestID) {
			items = append(items, score)
		}
	}
	return items, nil
}

func (s *Store) RecordJudgment(_ context.Context, judgment entities.Judgment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judgments = append(s.judgments, judgment)
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, seenAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID = strings.TrimSpace(eventID)
	if _, seen := s.dedup[eventID]; seen {
		return false, nil
	}
	s.dedup[eventID] = seenAt.UTC()
	return true, nil
}

func (s *Store) GetStandings(_ context.Context, contestID string) ([]entities.Standing, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	standings, ok := s.standings[strings.TrimSpace(contestID)]
	if !ok {
		return nil, false, nil
	}
	return append([]entities.Standing(nil), standings...), true, nil
}

func (s *Store) PutStandings(
	_ context.Context,
	contestID string,
	standings []entities.Standing,
	_ time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standings[strings.TrimSpace(contestID)] = append([]entities.Standing(nil), standings...)
	return nil
}

func (s *Store) Invalidate(_ context.Context, contestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.standings, strings.TrimSpace(contestID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
