package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crucible/contexts/contest-core/judging-engine/domain/entities"

	"github.com/redis/go-redis/v9"
)

const standingsKeyPrefix = "crucible:standings:"

// StandingsCache stores computed leaderboards in redis with a short TTL.
// Failures surface to the caller, which treats them as cache misses.
type StandingsCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewStandingsCache(client *redis.Client, logger *slog.Logger) *StandingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingsCache{
		client: client,
		logger: logger,
	}
}

func (c *StandingsCache) GetStandings(ctx context.Context, contestID string) ([]entities.Standing, bool, error) {
	raw, err := c.client.Get(ctx, standingsKey(contestID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get standings: %w", err)
	}
	var standings []entities.Standing
	if err := json.Unmarshal([]byte(raw), &standings); err != nil {
		// Corrupt payload: treat as a miss and let the next Put repair it.
		c.logger.Warn("discarding corrupt standings cache payload",
			"event", "standings_cache_corrupt",
			"module", "contest-core/judging-engine",
			"layer", "adapter",
			"contest_id", strings.TrimSpace(contestID),
			"error", err.Error(),
		)
		return nil, false, nil
	}
	return standings, true, nil
}

func (c *StandingsCache) PutStandings(
	ctx context.Context,
	contestID string,
	standings []entities.Standing,
	ttl time.Duration,
) error {
	payload, err := json.Marshal(standings)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if err := c.client.Set(ctx, standingsKey(contestID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set standings: %w", err)
	}
	return nil
}

func (c *StandingsCache) Invalidate(ctx context.Context, contestID string) error {
	if err := c.client.Del(ctx, standingsKey(contestID)).Err(); err != nil {
		return fmt.Errorf("redis del standings: %w", err)
	}
	return nil
}

func standingsKey(contestID string) string {
	return standingsKeyPrefix + strings.TrimSpace(contestID)
}
