package position

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakeIndexor/internal/events"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/tests/helpers"
	"github.com/stretchr/testify/require"
)

const blockTime = int64(1_700_000_000)

type applierFixture struct {
	t       *testing.T
	store   *Store
	applier *Applier
	decoder *events.Decoder
	logs    *helpers.LogBuilder
}

func newApplierFixture(t *testing.T) *applierFixture {
	t.Helper()

	store := newTestStore(t)
	decoder, err := events.NewDecoder()
	require.NoError(t, err)

	return &applierFixture{
		t:       t,
		store:   store,
		applier: NewApplier(store, chainID, logger.NewNopLogger()),
		decoder: decoder,
		logs:    helpers.NewLogBuilder(t, token),
	}
}

func (f *applierFixture) apply(log types.Log, at int64) Outcome {
	f.t.Helper()

	ev, err := f.decoder.Decode(log)
	require.NoError(f.t, err)
	require.NotNil(f.t, ev)

	outcome, err := f.applier.Apply(context.Background(), ev, time.Unix(at, 0))
	require.NoError(f.t, err)
	return outcome
}

func (f *applierFixture) get() *Position {
	f.t.Helper()

	p, err := f.store.Get(context.Background(), Key{User: alice, Token: token, ChainID: chainID})
	require.NoError(f.t, err)
	return p
}

func (f *applierFixture) requireAbsent() {
	f.t.Helper()

	_, err := f.store.Get(context.Background(), Key{User: alice, Token: token, ChainID: chainID})
	require.ErrorIs(f.t, err, ErrNotFound)
}

func days(n int64) int64 { return n * secondsPerDay }

func TestApplier_Staked(t *testing.T) {
	f := newApplierFixture(t)

	outcome := f.apply(f.logs.Staked(alice, token, 10, 0, helpers.Ether(100), blockTime+days(35)), blockTime)
	require.Equal(t, OutcomeApplied, outcome)

	p := f.get()
	require.Equal(t, helpers.Ether(100), p.Amount)
	require.Equal(t, big.NewInt(10_000_000_000), p.ConvictionScore)
	require.Equal(t, TierChampion, p.Tier)
	require.Equal(t, blockTime+days(35), p.LockEnd)
	require.Equal(t, blockTime, p.CreatedAt)
	require.Equal(t, blockTime, p.UpdatedAt)
}

func TestApplier_StakedOverActivePositionResetsRow(t *testing.T) {
	f := newApplierFixture(t)

	f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(100), blockTime+days(8)), blockTime)
	f.apply(f.logs.StakeIncreased(alice, token, 11, 0, big.NewInt(300), big.NewInt(400)), blockTime+days(1))

	restaked := blockTime + days(3)
	outcome := f.apply(f.logs.Staked(alice, token, 30, 0, big.NewInt(81), restaked+days(1)), restaked)
	require.Equal(t, OutcomeApplied, outcome)

	p := f.get()
	require.Equal(t, big.NewInt(81), p.Amount)
	require.Equal(t, big.NewInt(9), p.ConvictionScore)
	require.Equal(t, TierSupporter, p.Tier)
	require.Equal(t, restaked, p.CreatedAt)
	require.Equal(t, restaked, p.UpdatedAt)
}

func TestApplier_TierUsesBlockTimeNotWallClock(t *testing.T) {
	f := newApplierFixture(t)

	// Replayed years later, a 10 day lock measured from its block is still believer.
	old := int64(1_500_000_000)
	f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(9), old+days(10)), old)
	require.Equal(t, TierBeliever, f.get().Tier)
}

func TestApplier_StakeIncreased(t *testing.T) {
	f := newApplierFixture(t)

	f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(100), blockTime+days(8)), blockTime)
	outcome := f.apply(f.logs.StakeIncreased(alice, token, 20, 0, big.NewInt(300), big.NewInt(400)), blockTime+days(5))
	require.Equal(t, OutcomeApplied, outcome)

	p := f.get()
	require.Equal(t, big.NewInt(400), p.Amount)
	require.Equal(t, big.NewInt(20), p.ConvictionScore)
	require.Equal(t, TierBeliever, p.Tier, "tier is not recomputed on increase")
	require.Equal(t, blockTime+days(8), p.LockEnd)
	require.Equal(t, blockTime, p.CreatedAt)
	require.Equal(t, blockTime+days(5), p.UpdatedAt)
}

func TestApplier_LockExtendedRecomputesTierOnly(t *testing.T) {
	f := newApplierFixture(t)

	f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(144), blockTime+days(2)), blockTime)
	require.Equal(t, TierSupporter, f.get().Tier)

	f.apply(f.logs.LockExtended(alice, token, 11, 0, blockTime+days(60)), blockTime+days(1))

	p := f.get()
	require.Equal(t, TierChampion, p.Tier)
	require.Equal(t, big.NewInt(144), p.Amount)
	require.Equal(t, big.NewInt(12), p.ConvictionScore)
	require.Equal(t, blockTime+days(60), p.LockEnd)
	require.Equal(t, blockTime+days(1), p.UpdatedAt)
}

func TestApplier_StakedThenLockExtendedSameBlockReachesLegend(t *testing.T) {
	f := newApplierFixture(t)
	amount := helpers.Ether(1000)

	f.apply(f.logs.Staked(alice, token, 50, 3, amount, blockTime+days(35)), blockTime)
	require.Equal(t, TierChampion, f.get().Tier)

	f.apply(f.logs.LockExtended(alice, token, 50, 4, blockTime+days(95)), blockTime)

	p := f.get()
	require.Equal(t, TierLegend, p.Tier)
	require.Equal(t, amount, p.Amount)
	require.Equal(t, ISqrt(amount), p.ConvictionScore)
}

func TestApplier_WithdrawnDeletesAndLaterIncreaseIsNoRow(t *testing.T) {
	f := newApplierFixture(t)

	f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(100), blockTime+days(30)), blockTime)

	require.Equal(t, OutcomeApplied, f.apply(f.logs.Withdrawn(alice, token, 20, 0, big.NewInt(100)), blockTime))
	f.requireAbsent()

	outcome := f.apply(f.logs.StakeIncreased(alice, token, 30, 0, big.NewInt(5), big.NewInt(105)), blockTime)
	require.Equal(t, OutcomeNoRow, outcome)
	f.requireAbsent()

	require.Equal(t, OutcomeNoRow, f.apply(f.logs.LockExtended(alice, token, 31, 0, blockTime+days(99)), blockTime))
	require.Equal(t, OutcomeNoRow, f.apply(f.logs.Withdrawn(alice, token, 32, 0, big.NewInt(0)), blockTime))
	f.requireAbsent()
}

func TestApplier_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *applierFixture)
		event func(f *applierFixture) types.Log
	}{
		{
			name:  "Staked",
			event: func(f *applierFixture) types.Log { return f.logs.Staked(alice, token, 10, 0, big.NewInt(49), blockTime+days(7)) },
		},
		{
			name: "StakeIncreased",
			setup: func(f *applierFixture) {
				f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(49), blockTime+days(7)), blockTime)
			},
			event: func(f *applierFixture) types.Log {
				return f.logs.StakeIncreased(alice, token, 11, 0, big.NewInt(51), big.NewInt(100))
			},
		},
		{
			name: "LockExtended",
			setup: func(f *applierFixture) {
				f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(49), blockTime+days(7)), blockTime)
			},
			event: func(f *applierFixture) types.Log { return f.logs.LockExtended(alice, token, 11, 0, blockTime+days(91)) },
		},
		{
			name: "Withdrawn",
			setup: func(f *applierFixture) {
				f.apply(f.logs.Staked(alice, token, 10, 0, big.NewInt(49), blockTime+days(7)), blockTime)
			},
			event: func(f *applierFixture) types.Log { return f.logs.Withdrawn(alice, token, 11, 0, big.NewInt(49)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplierFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			snapshot := func() []*Position {
				positions, err := f.store.ListByUser(context.Background(), chainID, alice)
				require.NoError(t, err)
				return positions
			}

			f.apply(tt.event(f), blockTime+days(1))
			once := snapshot()

			f.apply(tt.event(f), blockTime+days(1))
			require.Equal(t, once, snapshot())
		})
	}
}

func TestApplier_IgnoresUnknownEvent(t *testing.T) {
	f := newApplierFixture(t)

	outcome, err := f.applier.Apply(context.Background(), &events.Event{Name: "Paused"}, time.Unix(blockTime, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)
}

func TestApplier_LockEndOutOfRange(t *testing.T) {
	f := newApplierFixture(t)

	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	ev, err := f.decoder.Decode(f.logs.Log(events.EventStaked, alice, token, 1, 0, big.NewInt(1), huge))
	require.NoError(t, err)

	_, err = f.applier.Apply(context.Background(), ev, time.Unix(blockTime, 0))
	require.ErrorContains(t, err, "out of range")
	f.requireAbsent()
}

func TestApplier_StoreFailureIsAnError(t *testing.T) {
	f := newApplierFixture(t)
	require.NoError(t, f.store.db.Close())

	ev, err := f.decoder.Decode(f.logs.StakeIncreased(alice, token, 1, 0, big.NewInt(1), big.NewInt(2)))
	require.NoError(t, err)

	outcome, err := f.applier.Apply(context.Background(), ev, time.Unix(blockTime, 0))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
	require.Equal(t, Outcome(0), outcome)
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "applied", OutcomeApplied.String())
	require.Equal(t, "no_row", OutcomeNoRow.String())
	require.Equal(t, "ignored", OutcomeIgnored.String())
}
