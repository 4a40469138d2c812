package position

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/events"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
)

// Outcome is the result of applying one event.
type Outcome int

const (
	// OutcomeApplied means the event changed (or re-asserted) a row.
	OutcomeApplied Outcome = iota
	// OutcomeNoRow means the event targeted a position that does not exist; nothing was written.
	OutcomeNoRow
	// OutcomeIgnored means the event is not one the applier handles.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoRow:
		return "no_row"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Applier turns decoded staking events into position writes for one chain.
type Applier struct {
	store   *Store
	chainID uint64
	log     *logger.Logger
}

// NewApplier creates an applier writing positions of chainID to store.
func NewApplier(store *Store, chainID uint64, log *logger.Logger) *Applier {
	return &Applier{store: store, chainID: chainID, log: log}
}

// Apply applies ev as of blockTime, the timestamp of the block that emitted it.
// Derived fields are computed from blockTime, never from the wall clock, so a
// replay yields the same row.
func (a *Applier) Apply(ctx context.Context, ev *events.Event, blockTime time.Time) (Outcome, error) {
	key := Key{User: ev.User(), Token: ev.Token(), ChainID: a.chainID}
	at := blockTime.Unix()

	switch ev.Name {
	case events.EventStaked:
		return a.staked(ctx, key, ev, at)
	case events.EventStakeIncreased:
		return a.stakeIncreased(ctx, key, ev, at)
	case events.EventLockExtended:
		return a.lockExtended(ctx, key, ev, at)
	case events.EventWithdrawn:
		return a.withdrawn(ctx, key, ev)
	default:
		a.log.Debugw("ignoring unhandled event", "event", ev.Name, "block", ev.BlockNumber)
		return OutcomeIgnored, nil
	}
}

func (a *Applier) staked(ctx context.Context, key Key, ev *events.Event, at int64) (Outcome, error) {
	amount := ev.Amount()
	lockEnd, err := unixSeconds(ev.LockEnd())
	if err != nil {
		return 0, fmt.Errorf("%s: lockEnd: %w", ev, err)
	}

	p := &Position{
		User:      key.User,
		Token:     key.Token,
		ChainID:   key.ChainID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	p.SetAmount(amount)
	p.SetLockEnd(lockEnd, at)

	if err := a.store.Save(ctx, p); err != nil {
		return 0, fmt.Errorf("%s: %w", ev, err)
	}

	a.log.Debugw("position staked",
		"user", key.User.Hex(),
		"token", key.Token.Hex(),
		"amount", amount.String(),
		"tier", p.Tier.String(),
		"block", ev.BlockNumber,
	)
	return OutcomeApplied, nil
}

func (a *Applier) stakeIncreased(ctx context.Context, key Key, ev *events.Event, at int64) (Outcome, error) {
	p, err := a.store.Get(ctx, key)
	if err != nil {
		return a.missing(ev, key, err)
	}

	p.SetAmount(ev.NewTotal())
	p.UpdatedAt = at

	if err := a.store.Save(ctx, p); err != nil {
		return 0, fmt.Errorf("%s: %w", ev, err)
	}
	return OutcomeApplied, nil
}

func (a *Applier) lockExtended(ctx context.Context, key Key, ev *events.Event, at int64) (Outcome, error) {
	lockEnd, err := unixSeconds(ev.LockEnd())
	if err != nil {
		return 0, fmt.Errorf("%s: newLockEnd: %w", ev, err)
	}

	p, err := a.store.Get(ctx, key)
	if err != nil {
		return a.missing(ev, key, err)
	}

	p.SetLockEnd(lockEnd, at)
	p.UpdatedAt = at

	if err := a.store.Save(ctx, p); err != nil {
		return 0, fmt.Errorf("%s: %w", ev, err)
	}
	return OutcomeApplied, nil
}

func (a *Applier) withdrawn(ctx context.Context, key Key, ev *events.Event) (Outcome, error) {
	existed, err := a.store.Delete(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ev, err)
	}

	if !existed {
		return a.missing(ev, key, ErrNotFound)
	}
	return OutcomeApplied, nil
}

// missing maps ErrNotFound to OutcomeNoRow and any other error to a failure.
func (a *Applier) missing(ev *events.Event, key Key, err error) (Outcome, error) {
	if !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", ev, err)
	}

	a.log.Warnw("event for missing position",
		"event", ev.Name,
		"user", key.User.Hex(),
		"token", key.Token.Hex(),
		"block", ev.BlockNumber,
		"log_index", ev.LogIndex,
	)
	return OutcomeNoRow, nil
}

func unixSeconds(v *big.Int) (int64, error) {
	if v == nil {
		return 0, errors.New("missing value")
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("value %s out of range", v)
	}
	return v.Int64(), nil
}
