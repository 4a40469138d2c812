package events

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Argument names shared across events.
const (
	ArgUser        = "user"
	ArgToken       = "token"
	ArgAmount      = "amount"
	ArgLockEnd     = "lockEnd"
	ArgAddedAmount = "addedAmount"
	ArgNewTotal    = "newTotal"
	ArgNewLockEnd  = "newLockEnd"
)

// Event is a decoded staking log. It lives for a single sync pass.
type Event struct {
	Name        string
	Args        map[string]any
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
}

func (e *Event) String() string {
	return fmt.Sprintf("%s@%d:%d", e.Name, e.BlockNumber, e.LogIndex)
}

// User returns the indexed staker address.
func (e *Event) User() common.Address {
	return e.address(ArgUser)
}

// Token returns the indexed staked token address.
func (e *Event) Token() common.Address {
	return e.address(ArgToken)
}

// Amount returns the amount of a Staked or Withdrawn event.
func (e *Event) Amount() *big.Int {
	return e.uint(ArgAmount)
}

// AddedAmount returns the delta of a StakeIncreased event.
func (e *Event) AddedAmount() *big.Int {
	return e.uint(ArgAddedAmount)
}

// NewTotal returns the resulting amount of a StakeIncreased event.
func (e *Event) NewTotal() *big.Int {
	return e.uint(ArgNewTotal)
}

// LockEnd returns the lock end of a Staked event or the new lock end of a LockExtended event.
func (e *Event) LockEnd() *big.Int {
	if e.Name == EventLockExtended {
		return e.uint(ArgNewLockEnd)
	}
	return e.uint(ArgLockEnd)
}

func (e *Event) address(name string) common.Address {
	addr, _ := e.Args[name].(common.Address)
	return addr
}

// uint returns a copy so callers cannot mutate the decoded value.
func (e *Event) uint(name string) *big.Int {
	v, ok := e.Args[name].(*big.Int)
	if !ok || v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
