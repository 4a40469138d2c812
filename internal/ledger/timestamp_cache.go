package ledger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/metrics"
	pkgledger "github.com/goran-ethernal/StakeIndexor/pkg/ledger"
	lru "github.com/hashicorp/golang-lru"
)

// TimestampCache memoizes block timestamps for the duration of one sync pass.
// Create a new one per pass; entries are never carried across passes.
type TimestampCache struct {
	reader pkgledger.Reader
	cache  *lru.Cache
}

// NewTimestampCache wraps reader with an LRU of at most size entries.
func NewTimestampCache(reader pkgledger.Reader, size int) (*TimestampCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create timestamp cache: %w", err)
	}

	return &TimestampCache{reader: reader, cache: cache}, nil
}

// BlockTimestamp returns the cached timestamp for block, asking the reader on a miss.
func (c *TimestampCache) BlockTimestamp(ctx context.Context, block uint64) (time.Time, error) {
	if v, ok := c.cache.Get(block); ok {
		metrics.TimestampLookupInc(true)
		return v.(time.Time), nil //nolint:forcetypeassert
	}
	metrics.TimestampLookupInc(false)

	ts, err := c.reader.BlockTimestamp(ctx, block)
	if err != nil {
		return time.Time{}, err
	}

	c.cache.Add(block, ts)
	return ts, nil
}

// Prefetch loads the timestamps of the given blocks that are not cached yet.
// It only does work when the reader supports batching; otherwise lookups stay lazy.
func (c *TimestampCache) Prefetch(ctx context.Context, blocks []uint64) error {
	batcher, ok := c.reader.(pkgledger.BatchTimestamper)
	if !ok {
		return nil
	}

	missing := make([]uint64, 0, len(blocks))
	for _, block := range blocks {
		if !c.cache.Contains(block) {
			missing = append(missing, block)
		}
	}
	slices.Sort(missing)
	missing = slices.Compact(missing)

	if len(missing) == 0 {
		return nil
	}

	timestamps, err := batcher.BlockTimestamps(ctx, missing)
	if err != nil {
		return err
	}

	for block, ts := range timestamps {
		c.cache.Add(block, ts)
	}

	return nil
}

// Len returns the number of cached timestamps.
func (c *TimestampCache) Len() int {
	return c.cache.Len()
}
