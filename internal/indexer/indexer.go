package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/checkpoint"
	"github.com/goran-ethernal/StakeIndexor/internal/common"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/metrics"
	"github.com/goran-ethernal/StakeIndexor/internal/syncer"
	pkgindexer "github.com/goran-ethernal/StakeIndexor/pkg/indexer"
)

// Compile-time check to ensure Indexer implements pkgindexer.Indexer interface.
var _ pkgindexer.Indexer = (*Indexer)(nil)

// PassRunner runs one synchronization pass.
type PassRunner interface {
	Sync(ctx context.Context, shouldStop func() bool) (*syncer.PassReport, error)
}

// Indexer polls the chain: a full sync pass, then poll interval of sleep, until stopped.
// Pass failures are logged and retried on the next poll; a checkpoint regression
// is a defect and ends the loop.
type Indexer struct {
	runner       PassRunner
	pollInterval time.Duration
	log          *logger.Logger

	stopping atomic.Bool

	mu      sync.Mutex
	running bool
	wake    chan struct{}
	done    chan struct{}
	err     error
}

// New creates a stopped indexer.
func New(runner PassRunner, pollInterval time.Duration, log *logger.Logger) *Indexer {
	return &Indexer{
		runner:       runner,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Start launches the poll loop. ctx cancellation ends the loop like Stop does.
func (i *Indexer) Start(ctx context.Context) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return false
	}

	i.running = true
	i.err = nil
	i.stopping.Store(false)
	i.wake = make(chan struct{})
	i.done = make(chan struct{})

	metrics.ComponentHealthSet(common.ComponentIndexer, true)
	go i.run(ctx, i.wake, i.done)

	i.log.Infow("indexer started", "poll_interval", i.pollInterval)
	return true
}

// Stop signals the loop and waits for it to exit. The in-flight chunk, if any, is finished first.
func (i *Indexer) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}

	done := i.done
	if !i.stopping.Swap(true) {
		close(i.wake)
	}
	i.mu.Unlock()

	<-done
}

// Running reports whether the loop is active.
func (i *Indexer) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// Done is closed when the loop exits. Before the first Start it is already closed.
func (i *Indexer) Done() <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return i.done
}

// Err returns the fatal error that ended the last loop, nil after a normal stop.
func (i *Indexer) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Healthy is a metrics.HealthCheck reporting a loop ended by a fatal error.
func (i *Indexer) Healthy() error {
	if err := i.Err(); err != nil {
		return fmt.Errorf("indexer stopped: %w", err)
	}
	return nil
}

func (i *Indexer) shouldStop() bool {
	return i.stopping.Load()
}

func (i *Indexer) run(ctx context.Context, wake <-chan struct{}, done chan<- struct{}) {
	var fatal error

	defer func() {
		i.mu.Lock()
		i.running = false
		i.err = fatal
		i.mu.Unlock()

		close(done)
		i.log.Infow("indexer stopped", "error", fatal)
	}()

	for {
		if i.shouldStop() || ctx.Err() != nil {
			return
		}

		report, err := i.runner.Sync(ctx, i.shouldStop)
		switch {
		case errors.Is(err, checkpoint.ErrCheckpointRegression):
			fatal = err
			metrics.ErrorsInc(common.ComponentIndexer, "fatal")
			metrics.ComponentHealthSet(common.ComponentIndexer, false)
			i.log.Errorw("checkpoint invariant violated, stopping indexer", "error", err)
			return
		case err != nil:
			metrics.ErrorsInc(common.ComponentIndexer, "warn")
			i.log.Warnw("sync pass failed, retrying next poll", "error", err)
		case report != nil && !report.NoOp():
			i.log.Infow("sync pass finished",
				"checkpoint", report.Checkpoint,
				"head", report.Head,
				"chunks", len(report.Chunks),
				"stopped", report.Stopped,
			)
		}

		timer := time.NewTimer(i.pollInterval)
		select {
		case <-timer.C:
		case <-wake:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
