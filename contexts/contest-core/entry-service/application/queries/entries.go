package queries

import (
	"context"
	"log/slog"
	"strings"

	application "crucible/contexts/contest-core/entry-service/application"
	"crucible/contexts/contest-core/entry-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/ports"
)

type EntryUseCase struct {
	Entries ports.EntryRepository
	Logger  *slog.Logger
}

func (uc EntryUseCase) GetEntry(ctx context.Context, entryID string) (entities.Entry, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return entities.Entry{}, domainerrors.ErrEntryNotFound
	}
	return uc.Entries.GetEntry(ctx, entryID)
}

func (uc EntryUseCase) ListContestEntries(ctx context.Context, contestID string) ([]entities.Entry, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return nil, domainerrors.ErrContestNotFound
	}
	entries, err := uc.Entries.ListEntriesByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	logger := application.ResolveLogger(uc.Logger)
	logger.Debug("contest entries listed",
		"event", "contest_entries_listed",
		"module", "contest-core/entry-service",
		"layer", "application",
		"contest_id", contestID,
		"count", len(entries),
	)
	return entries, nil
}
