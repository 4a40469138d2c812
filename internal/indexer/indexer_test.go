package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/checkpoint"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/syncer"
	"github.com/stretchr/testify/require"
)

// scriptedRunner returns errs[n] for the n-th pass, nil once the script is exhausted.
type scriptedRunner struct {
	mu      sync.Mutex
	errs    []error
	passes  atomic.Int32
	block   chan struct{}
	sawStop atomic.Bool
}

func (r *scriptedRunner) Sync(ctx context.Context, shouldStop func() bool) (*syncer.PassReport, error) {
	n := int(r.passes.Add(1)) - 1

	if r.block != nil {
		<-r.block
		r.sawStop.Store(shouldStop())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if n < len(r.errs) {
		return nil, r.errs[n]
	}
	return &syncer.PassReport{}, nil
}

func waitPasses(t *testing.T, r *scriptedRunner, n int32) {
	t.Helper()
	require.Eventually(t, func() bool { return r.passes.Load() >= n }, 2*time.Second, 5*time.Millisecond)
}

func TestIndexer_StartIsIdempotent(t *testing.T) {
	runner := &scriptedRunner{}
	idx := New(runner, time.Hour, logger.NewNopLogger())

	require.True(t, idx.Start(context.Background()))
	require.False(t, idx.Start(context.Background()))
	require.True(t, idx.Running())

	waitPasses(t, runner, 1)
	idx.Stop()

	require.False(t, idx.Running())
	require.Equal(t, int32(1), runner.passes.Load())
	require.NoError(t, idx.Err())
}

func TestIndexer_StopInterruptsSleep(t *testing.T) {
	runner := &scriptedRunner{}
	idx := New(runner, time.Hour, logger.NewNopLogger())

	require.True(t, idx.Start(context.Background()))
	waitPasses(t, runner, 1)

	stopped := make(chan struct{})
	go func() {
		idx.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the poll sleep")
	}

	select {
	case <-idx.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestIndexer_StopWaitsForInFlightPass(t *testing.T) {
	runner := &scriptedRunner{block: make(chan struct{})}
	idx := New(runner, time.Hour, logger.NewNopLogger())

	require.True(t, idx.Start(context.Background()))
	waitPasses(t, runner, 1)

	stopped := make(chan struct{})
	go func() {
		idx.Stop()
		close(stopped)
	}()

	require.Eventually(t, func() bool { return idx.shouldStop() }, time.Second, time.Millisecond)

	select {
	case <-stopped:
		t.Fatal("Stop returned while a pass was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	<-stopped

	require.True(t, runner.sawStop.Load(), "pass should observe the stop request")
	require.False(t, idx.Running())
}

func TestIndexer_PassErrorsDoNotStopLoop(t *testing.T) {
	runner := &scriptedRunner{errs: []error{
		errors.New("rpc unavailable"),
		&syncer.ChunkError{From: 10, To: 19},
	}}
	idx := New(runner, 5*time.Millisecond, logger.NewNopLogger())

	require.True(t, idx.Start(context.Background()))
	waitPasses(t, runner, 4)
	require.True(t, idx.Running())

	idx.Stop()
	require.NoError(t, idx.Err())
	require.NoError(t, idx.Healthy())
}

func TestIndexer_CheckpointRegressionIsFatal(t *testing.T) {
	regression := fmt.Errorf("advance checkpoint: %w", checkpoint.ErrCheckpointRegression)
	runner := &scriptedRunner{errs: []error{regression}}
	idx := New(runner, 5*time.Millisecond, logger.NewNopLogger())

	require.True(t, idx.Start(context.Background()))

	select {
	case <-idx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("indexer kept running after a checkpoint regression")
	}

	require.False(t, idx.Running())
	require.ErrorIs(t, idx.Err(), checkpoint.ErrCheckpointRegression)
	require.ErrorIs(t, idx.Healthy(), checkpoint.ErrCheckpointRegression)
	require.Equal(t, int32(1), runner.passes.Load())

	// a stopped indexer may be started again
	require.True(t, idx.Start(context.Background()))
	require.NoError(t, idx.Err())
	idx.Stop()
}

func TestIndexer_ContextCancelEndsLoop(t *testing.T) {
	runner := &scriptedRunner{}
	idx := New(runner, time.Hour, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, idx.Start(ctx))
	waitPasses(t, runner, 1)

	cancel()
	select {
	case <-idx.Done():
	case <-time.After(time.Second):
		t.Fatal("indexer ignored context cancellation")
	}
	require.False(t, idx.Running())
}

func TestIndexer_StopWhenStopped(t *testing.T) {
	idx := New(&scriptedRunner{}, time.Hour, logger.NewNopLogger())

	idx.Stop()
	require.False(t, idx.Running())

	select {
	case <-idx.Done():
	default:
		t.Fatal("Done should be closed for an indexer that never started")
	}

	require.True(t, idx.Start(context.Background()))
	idx.Stop()
	idx.Stop()
	require.False(t, idx.Running())
}
