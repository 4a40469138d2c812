package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/rpc"
	itypes "github.com/goran-ethernal/StakeIndexor/internal/types"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
	pkgledger "github.com/goran-ethernal/StakeIndexor/pkg/ledger"
	pkgrpc "github.com/goran-ethernal/StakeIndexor/pkg/rpc"
)

var (
	_ pkgledger.Reader           = (*RPCReader)(nil)
	_ pkgledger.BatchTimestamper = (*RPCReader)(nil)
)

// RPCReader implements ledger.Reader over an Ethereum JSON-RPC client.
type RPCReader struct {
	client       pkgrpc.EthClient
	finality     itypes.BlockFinality
	finalizedLag uint64
	timeout      time.Duration
	log          *logger.Logger
}

// NewRPCReader creates a reader bound to the finality and timeout settings of cfg.
func NewRPCReader(client pkgrpc.EthClient, cfg *config.IndexerConfig, log *logger.Logger) (*RPCReader, error) {
	finality, err := itypes.ParseBlockFinality(cfg.Finality)
	if err != nil {
		return nil, err
	}

	return &RPCReader{
		client:       client,
		finality:     finality,
		finalizedLag: cfg.FinalizedLag,
		timeout:      cfg.RPCTimeout.Duration,
		log:          log,
	}, nil
}

// CurrentHead returns the head for the configured finality.
// For "latest" the finalized lag is subtracted, saturating at genesis.
func (r *RPCReader) CurrentHead(ctx context.Context) (uint64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		header *types.Header
		err    error
	)

	switch r.finality {
	case itypes.FinalityFinalized:
		header, err = r.client.GetFinalizedBlockHeader(ctx)
	case itypes.FinalitySafe:
		header, err = r.client.GetSafeBlockHeader(ctx)
	case itypes.FinalityLatest:
		header, err = r.client.GetLatestBlockHeader(ctx)
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", r.finality)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s block header: %w", r.finality, err)
	}

	head := header.Number.Uint64()
	if r.finality == itypes.FinalityLatest {
		if head < r.finalizedLag {
			return 0, nil
		}
		head -= r.finalizedLag
	}

	return head, nil
}

// FetchLogs returns all logs emitted by contract in [from, to]. When the provider
// rejects the range as too large it is split in halves until every part succeeds.
func (r *RPCReader) FetchLogs(ctx context.Context, contract common.Address, from, to uint64) ([]types.Log, error) {
	if from > to {
		return nil, fmt.Errorf("invalid block range [%d, %d]", from, to)
	}

	logs, err := r.getLogs(ctx, contract, from, to)
	if err == nil {
		return logs, nil
	}

	if !rpc.IsTooManyResultsError(err) || from == to {
		return nil, fmt.Errorf("failed to fetch logs for blocks [%d, %d]: %w", from, to, err)
	}

	mid := from + (to-from)/2
	r.log.Debugw("log range too large, splitting",
		"from", from,
		"to", to,
		"mid", mid,
	)

	left, err := r.FetchLogs(ctx, contract, from, mid)
	if err != nil {
		return nil, err
	}

	right, err := r.FetchLogs(ctx, contract, mid+1, to)
	if err != nil {
		return nil, err
	}

	return append(left, right...), nil
}

func (r *RPCReader) getLogs(ctx context.Context, contract common.Address, from, to uint64) ([]types.Log, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.client.GetLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{contract},
	})
}

// BlockTimestamp returns the header time of block in UTC.
func (r *RPCReader) BlockTimestamp(ctx context.Context, block uint64) (time.Time, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	header, err := r.client.GetBlockHeader(ctx, block)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get header for block %d: %w", block, err)
	}

	return headerTime(header), nil
}

// BlockTimestamps resolves several block timestamps with one batched request.
func (r *RPCReader) BlockTimestamps(ctx context.Context, blocks []uint64) (map[uint64]time.Time, error) {
	if len(blocks) == 0 {
		return map[uint64]time.Time{}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	headers, err := r.client.BatchGetBlockHeaders(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get %d block headers: %w", len(blocks), err)
	}

	out := make(map[uint64]time.Time, len(headers))
	for _, header := range headers {
		out[header.Number.Uint64()] = headerTime(header)
	}

	return out, nil
}

func (r *RPCReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func headerTime(header *types.Header) time.Time {
	return time.Unix(int64(header.Time), 0).UTC() //nolint:gosec
}
