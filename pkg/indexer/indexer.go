package indexer

import "context"

// Indexer is a background loop keeping the position store in step with the chain.
type Indexer interface {
	// Start launches the loop. It returns false and does nothing when already running.
	Start(ctx context.Context) bool

	// Stop asks the loop to exit after its in-flight chunk and waits for it. Safe when stopped.
	Stop()

	// Running reports whether the loop is active.
	Running() bool

	// Done is closed when the current (or last) loop exits.
	Done() <-chan struct{}

	// Err returns the fatal error that ended the loop, if any.
	Err() error
}
