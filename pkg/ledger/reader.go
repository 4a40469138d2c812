package ledger

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Reader is the read-only view of the chain the syncer works against.
type Reader interface {
	// CurrentHead returns the highest block the indexer may sync up to.
	CurrentHead(ctx context.Context) (uint64, error)

	// FetchLogs returns every log emitted by contract in the inclusive range [from, to].
	FetchLogs(ctx context.Context, contract common.Address, from, to uint64) ([]types.Log, error)

	// BlockTimestamp returns the time the given block was produced.
	BlockTimestamp(ctx context.Context, block uint64) (time.Time, error)
}

// BatchTimestamper is implemented by readers able to resolve many block timestamps in one round trip.
type BatchTimestamper interface {
	BlockTimestamps(ctx context.Context, blocks []uint64) (map[uint64]time.Time, error)
}
