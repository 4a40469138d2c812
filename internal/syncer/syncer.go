package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/events"
	"github.com/goran-ethernal/StakeIndexor/internal/ledger"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/metrics"
	"github.com/goran-ethernal/StakeIndexor/internal/position"
	pkgledger "github.com/goran-ethernal/StakeIndexor/pkg/ledger"
)

const (
	defaultChunkSize          = 1000
	defaultTimestampCacheSize = 1024
)

// CheckpointStore is the persisted sync position the syncer resumes from.
type CheckpointStore interface {
	GetLastSynced(ctx context.Context, chainID uint64) (uint64, error)
	Advance(ctx context.Context, chainID, block uint64) error
}

// Applier applies one decoded event as of its block time.
type Applier interface {
	Apply(ctx context.Context, ev *events.Event, blockTime time.Time) (position.Outcome, error)
}

// Config holds the per-chain settings of a Syncer.
type Config struct {
	ChainID            uint64
	Contract           common.Address
	StartBlock         uint64
	ChunkSize          uint64
	TimestampCacheSize int
}

// Syncer runs synchronization passes: it brings the checkpoint of one chain up to
// the ledger head, one chunk at a time.
type Syncer struct {
	cfg         Config
	reader      pkgledger.Reader
	decoder     *events.Decoder
	applier     Applier
	checkpoints CheckpointStore
	log         *logger.Logger
}

// New creates a Syncer. Zero ChunkSize and TimestampCacheSize fall back to defaults.
func New(
	cfg Config,
	reader pkgledger.Reader,
	decoder *events.Decoder,
	applier Applier,
	checkpoints CheckpointStore,
	log *logger.Logger,
) *Syncer {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.TimestampCacheSize <= 0 {
		cfg.TimestampCacheSize = defaultTimestampCacheSize
	}

	return &Syncer{
		cfg:         cfg,
		reader:      reader,
		decoder:     decoder,
		applier:     applier,
		checkpoints: checkpoints,
		log:         log,
	}
}

// Sync runs one pass. Chunks are processed in ascending order and the checkpoint is
// advanced after each clean chunk. The first chunk with a failed event stops the
// pass with a *ChunkError and leaves the checkpoint before it. shouldStop is
// consulted between chunks.
func (s *Syncer) Sync(ctx context.Context, shouldStop func() bool) (*PassReport, error) {
	last, err := s.checkpoints.GetLastSynced(ctx, s.cfg.ChainID)
	if err != nil {
		metrics.PassInc(s.cfg.ChainID, "failed")
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	head, err := s.reader.CurrentHead(ctx)
	if err != nil {
		metrics.PassInc(s.cfg.ChainID, "failed")
		return nil, fmt.Errorf("failed to read chain head: %w", err)
	}

	metrics.SyncProgressSet(s.cfg.ChainID, head, last)

	report := &PassReport{Head: head, StartCheckpoint: last, Checkpoint: last}

	from := max(last+1, s.cfg.StartBlock)
	if head < from {
		metrics.PassInc(s.cfg.ChainID, "noop")
		s.log.Debugw("nothing to sync", "head", head, "last_synced", last)
		return report, nil
	}

	// Timestamps are cached for this pass only.
	cache, err := ledger.NewTimestampCache(s.reader, s.cfg.TimestampCacheSize)
	if err != nil {
		return nil, err
	}

	s.log.Infow("sync pass started",
		"from", from,
		"head", head,
		"blocks", head-from+1,
	)

	for chunkFrom := from; chunkFrom <= head; {
		if shouldStop != nil && shouldStop() {
			report.Stopped = true
			s.log.Infow("sync pass stopped", "checkpoint", report.Checkpoint)
			break
		}

		chunkTo := head
		if head-chunkFrom >= s.cfg.ChunkSize {
			chunkTo = chunkFrom + s.cfg.ChunkSize - 1
		}

		result, err := s.syncChunk(ctx, cache, chunkFrom, chunkTo)
		if err != nil {
			metrics.PassInc(s.cfg.ChainID, "failed")
			return report, err
		}
		report.Chunks = append(report.Chunks, result)
		metrics.ChunkDurationLog(s.cfg.ChainID, result.Duration)

		if !result.Clean() {
			metrics.ChunkFailedInc(s.cfg.ChainID)
			metrics.PassInc(s.cfg.ChainID, "failed")
			return report, &ChunkError{From: chunkFrom, To: chunkTo, Failures: result.Failures()}
		}

		if err := s.checkpoints.Advance(ctx, s.cfg.ChainID, chunkTo); err != nil {
			metrics.PassInc(s.cfg.ChainID, "failed")
			return report, fmt.Errorf("failed to advance checkpoint to %d: %w", chunkTo, err)
		}
		report.Checkpoint = chunkTo

		metrics.ChunkCommittedInc(s.cfg.ChainID)
		metrics.SyncProgressSet(s.cfg.ChainID, head, chunkTo)

		s.log.Infow("chunk committed",
			"from", chunkFrom,
			"to", chunkTo,
			"logs", result.Logs,
			"applied", result.Count(Applied),
			"no_row", result.Count(NoRow),
			"ignored", result.Count(Ignored),
			"duration", result.Duration,
		)

		if chunkTo == head {
			break
		}
		chunkFrom = chunkTo + 1
	}

	metrics.PassInc(s.cfg.ChainID, "ok")
	return report, nil
}

// syncChunk fetches, decodes, orders and applies the events of [from, to].
// Per-event failures are recorded, not returned; only a failed fetch is an error.
func (s *Syncer) syncChunk(ctx context.Context, cache *ledger.TimestampCache, from, to uint64) (*ChunkResult, error) {
	start := time.Now()

	logs, err := s.reader.FetchLogs(ctx, s.cfg.Contract, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs for chunk [%d, %d]: %w", from, to, err)
	}

	decoded, decodeErrs := s.decoder.DecodeAll(logs)
	result := &ChunkResult{
		From:     from,
		To:       to,
		Logs:     len(logs),
		Outcomes: make([]EventOutcome, 0, len(decoded)+len(decodeErrs)),
	}

	for _, err := range decodeErrs {
		s.log.Errorw("failed to decode staking log", "from", from, "to", to, "error", err)
		metrics.EventInc("undecodable", Failed.String())
		result.Outcomes = append(result.Outcomes, EventOutcome{Kind: Failed, Err: err})
	}

	events.Sequence(decoded)

	if len(decoded) > 0 {
		blocks := make([]uint64, len(decoded))
		for i, ev := range decoded {
			blocks[i] = ev.BlockNumber
		}
		if err := cache.Prefetch(ctx, blocks); err != nil {
			s.log.Warnw("failed to prefetch block timestamps, resolving one by one", "error", err)
		}
	}

	for _, ev := range decoded {
		outcome := s.applyEvent(ctx, cache, ev)
		metrics.EventInc(ev.Name, outcome.Kind.String())
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (s *Syncer) applyEvent(ctx context.Context, cache *ledger.TimestampCache, ev *events.Event) EventOutcome {
	blockTime, err := cache.BlockTimestamp(ctx, ev.BlockNumber)
	if err != nil {
		s.log.Warnw("failed to resolve block timestamp", "event", ev.String(), "error", err)
		return EventOutcome{Event: ev, Kind: Failed, Err: err}
	}

	outcome, err := s.applier.Apply(ctx, ev, blockTime)
	if err != nil {
		s.log.Errorw("failed to apply event",
			"event", ev.Name,
			"block", ev.BlockNumber,
			"log_index", ev.LogIndex,
			"tx", ev.TxHash.Hex(),
			"error", err,
		)
		return EventOutcome{Event: ev, Kind: Failed, Err: err}
	}

	switch outcome {
	case position.OutcomeApplied:
		return EventOutcome{Event: ev, Kind: Applied}
	case position.OutcomeIgnored:
		return EventOutcome{Event: ev, Kind: Ignored}
	default:
		return EventOutcome{Event: ev, Kind: NoRow}
	}
}
