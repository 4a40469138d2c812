package position

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Position is one staking position, keyed by (User, Token, ChainID).
// Tier and ConvictionScore are derived and only ever written together with
// the field they derive from.
type Position struct {
	User            common.Address `meddler:"user_address,address"`
	Token           common.Address `meddler:"token_address,address"`
	ChainID         uint64         `meddler:"chain_id"`
	Amount          *big.Int       `meddler:"amount,bigint"`
	LockEnd         int64          `meddler:"lock_end"`
	Tier            Tier           `meddler:"tier"`
	ConvictionScore *big.Int       `meddler:"conviction_score,bigint"`
	CreatedAt       int64          `meddler:"created_at"`
	UpdatedAt       int64          `meddler:"updated_at"`
}

// Key identifies a position.
type Key struct {
	User    common.Address
	Token   common.Address
	ChainID uint64
}

func (p *Position) Key() Key {
	return Key{User: p.User, Token: p.Token, ChainID: p.ChainID}
}

// LockEndTime returns LockEnd as a UTC time.
func (p *Position) LockEndTime() time.Time {
	return time.Unix(p.LockEnd, 0).UTC()
}

// SetAmount sets the amount and recomputes the conviction score from it.
func (p *Position) SetAmount(amount *big.Int) {
	p.Amount = new(big.Int).Set(amount)
	p.ConvictionScore = ConvictionScore(amount)
}

// SetLockEnd sets the lock end and recomputes the tier as seen at blockTime.
func (p *Position) SetLockEnd(lockEnd, blockTime int64) {
	p.LockEnd = lockEnd
	p.Tier = TierForLock(lockEnd, blockTime)
}
