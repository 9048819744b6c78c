package advisor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// Cache is the key-value store behind CachedAdvisor. Get returns an error
// on a miss that IsMiss recognizes.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	IsMiss(err error) bool
}

// CachedAdvisor remembers suggestions per position so repeated positions do
// not cost another completion.
type CachedAdvisor struct {
	next   Advisor
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAdvisor(next Advisor, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedAdvisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAdvisor{next: next, cache: cache, ttl: ttl, logger: logger.Named("advisor")}
}

func CacheKey(board domain.Board, mover domain.Color, difficulty domain.Difficulty) string {
	return fmt.Sprintf("advice:%s:%s:%s", difficulty, mover, board.Key())
}

func (c *CachedAdvisor) SuggestColumn(ctx context.Context, board domain.Board, mover domain.Color, difficulty domain.Difficulty) (int, error) {
	key := CacheKey(board, mover, difficulty)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		if col, convErr := strconv.Atoi(cached); convErr == nil {
			return col, nil
		}
		c.logger.Warn("ignoring malformed cached suggestion", zap.String("key", key))
	case !c.cache.IsMiss(err):
		c.logger.Warn("advice cache unavailable", zap.Error(err))
	}

	col, err := c.next.SuggestColumn(ctx, board, mover, difficulty)
	if err != nil {
		return -1, err
	}

	// only playable answers are worth remembering
	if domain.IsValidMove(board, col) {
		if err := c.cache.Set(ctx, key, strconv.Itoa(col), c.ttl); err != nil {
			c.logger.Warn("failed to cache suggestion", zap.Error(err))
		}
	}
	return col, nil
}
