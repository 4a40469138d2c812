package syncer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/events"
)

// OutcomeKind classifies what happened to one event of a chunk.
type OutcomeKind int

const (
	Applied OutcomeKind = iota
	NoRow
	Ignored
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Applied:
		return "applied"
	case NoRow:
		return "no_row"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventOutcome is the tagged result of one event. Event is nil for a log that failed to decode.
type EventOutcome struct {
	Event *events.Event
	Kind  OutcomeKind
	Err   error
}

func (o EventOutcome) String() string {
	name := "undecodable log"
	if o.Event != nil {
		name = o.Event.String()
	}
	if o.Err != nil {
		return fmt.Sprintf("%s: %s: %v", name, o.Kind, o.Err)
	}
	return fmt.Sprintf("%s: %s", name, o.Kind)
}

// ChunkResult holds the outcomes of one chunk [From, To].
type ChunkResult struct {
	From     uint64
	To       uint64
	Logs     int
	Outcomes []EventOutcome
	Duration time.Duration
}

// Clean reports whether no event of the chunk failed. Only clean chunks are checkpointed.
func (r *ChunkResult) Clean() bool {
	for _, o := range r.Outcomes {
		if o.Kind == Failed {
			return false
		}
	}
	return true
}

// Failures returns the failed outcomes in application order.
func (r *ChunkResult) Failures() []EventOutcome {
	var failed []EventOutcome
	for _, o := range r.Outcomes {
		if o.Kind == Failed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Count returns how many outcomes are of kind k.
func (r *ChunkResult) Count(k OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// ChunkError reports a chunk left uncommitted because some of its events failed.
type ChunkError struct {
	From     uint64
	To       uint64
	Failures []EventOutcome
}

func (e *ChunkError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("chunk [%d, %d] not committed, %d event(s) failed: %s",
		e.From, e.To, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failure causes to errors.Is and errors.As.
func (e *ChunkError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// PassReport summarizes one synchronization pass.
type PassReport struct {
	Head            uint64
	StartCheckpoint uint64
	Checkpoint      uint64
	Chunks          []*ChunkResult
	Stopped         bool
}

// NoOp reports whether the pass had nothing to do.
func (p *PassReport) NoOp() bool {
	return len(p.Chunks) == 0 && !p.Stopped
}

// CaughtUp reports whether the checkpoint reached the head seen by the pass.
func (p *PassReport) CaughtUp() bool {
	return p.Checkpoint >= p.Head
}

// IsChunkError reports whether err carries a *ChunkError.
func IsChunkError(err error) bool {
	var chunkErr *ChunkError
	return errors.As(err, &chunkErr)
}
