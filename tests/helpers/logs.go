package helpers

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/StakeIndexor/internal/events"
	"github.com/stretchr/testify/require"
)

// LogBuilder encodes staking contract logs the way the chain would emit them.
type LogBuilder struct {
	t        *testing.T
	contract abi.ABI
	address  common.Address
}

// NewLogBuilder returns a builder for logs emitted by address.
func NewLogBuilder(t *testing.T, address common.Address) *LogBuilder {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(events.StakingABI))
	require.NoError(t, err)

	return &LogBuilder{t: t, contract: parsed, address: address}
}

// Log encodes event name for (user, token) with the given non-indexed values.
func (b *LogBuilder) Log(name string, user, token common.Address, block uint64, index uint, values ...*big.Int) types.Log {
	b.t.Helper()

	ev, ok := b.contract.Events[name]
	require.True(b.t, ok, "unknown event %s", name)

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	data, err := ev.Inputs.NonIndexed().Pack(args...)
	require.NoError(b.t, err)

	return types.Log{
		Address: b.address,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(user.Bytes()),
			common.BytesToHash(token.Bytes()),
		},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
	}
}

func (b *LogBuilder) Staked(user, token common.Address, block uint64, index uint, amount *big.Int, lockEnd int64) types.Log {
	return b.Log(events.EventStaked, user, token, block, index, amount, big.NewInt(lockEnd))
}

func (b *LogBuilder) StakeIncreased(user, token common.Address, block uint64, index uint, added, newTotal *big.Int) types.Log {
	return b.Log(events.EventStakeIncreased, user, token, block, index, added, newTotal)
}

func (b *LogBuilder) LockExtended(user, token common.Address, block uint64, index uint, newLockEnd int64) types.Log {
	return b.Log(events.EventLockExtended, user, token, block, index, big.NewInt(newLockEnd))
}

func (b *LogBuilder) Withdrawn(user, token common.Address, block uint64, index uint, amount *big.Int) types.Log {
	return b.Log(events.EventWithdrawn, user, token, block, index, amount)
}

// Ether returns n * 10^18.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}
