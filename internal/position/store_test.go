package position

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/tests/helpers"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xA11CEa11ceA11ceA11cEa11CEA11CeA11ceA11cE")
	bob   = common.HexToAddress("0xB0bB0bB0bB0bB0bB0bB0bB0bB0bB0bB0bB0bB0bB")
	carol = common.HexToAddress("0xCa401Ca401Ca401Ca401Ca401Ca401Ca401Ca401")
	token = common.HexToAddress("0x7070707070707070707070707070707070707070")
	other = common.HexToAddress("0x8080808080808080808080808080808080808080")
)

const chainID = uint64(84532)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, _ := helpers.NewTestDB(t, "positions.db")
	return NewStore(database, nil, logger.NewNopLogger())
}

func newPosition(user, tok common.Address, amount *big.Int) *Position {
	p := &Position{User: user, Token: tok, ChainID: chainID, CreatedAt: 100, UpdatedAt: 100}
	p.SetAmount(amount)
	p.SetLockEnd(100+40*secondsPerDay, 100)
	return p
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	amount := helpers.Ether(1000)
	require.NoError(t, s.Save(ctx, newPosition(alice, token, amount)))

	got, err := s.Get(ctx, Key{User: alice, Token: token, ChainID: chainID})
	require.NoError(t, err)
	require.Equal(t, alice, got.User)
	require.Equal(t, amount, got.Amount)
	require.Equal(t, ISqrt(amount), got.ConvictionScore)
	require.Equal(t, TierChampion, got.Tier)

	var stored string
	require.NoError(t, s.db.QueryRow(`SELECT user_address FROM positions`).Scan(&stored))
	require.Equal(t, strings.ToLower(alice.Hex()), stored)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), Key{User: alice, Token: token, ChainID: chainID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveReplacesExistingRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, newPosition(alice, token, big.NewInt(100))))

	updated := newPosition(alice, token, big.NewInt(400))
	updated.CreatedAt = 999
	updated.UpdatedAt = 999
	require.NoError(t, s.Save(ctx, updated))

	got, err := s.Get(ctx, Key{User: alice, Token: token, ChainID: chainID})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), got.Amount)
	require.Equal(t, big.NewInt(20), got.ConvictionScore)
	require.Equal(t, int64(999), got.CreatedAt)
	require.Equal(t, int64(999), got.UpdatedAt)

	n, err := s.Count(ctx, chainID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	key := Key{User: alice, Token: token, ChainID: chainID}

	require.NoError(t, s.Save(ctx, newPosition(alice, token, big.NewInt(1))))

	existed, err := s.Delete(ctx, key)
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = s.Delete(ctx, key)
	require.NoError(t, err)
	require.False(t, existed)
}

func TestStore_ListByUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, newPosition(alice, other, big.NewInt(1))))
	require.NoError(t, s.Save(ctx, newPosition(alice, token, big.NewInt(2))))
	require.NoError(t, s.Save(ctx, newPosition(bob, token, big.NewInt(3))))

	positions, err := s.ListByUser(ctx, chainID, alice)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	require.Equal(t, token, positions[0].Token)
	require.Equal(t, other, positions[1].Token)

	positions, err = s.ListByUser(ctx, chainID+1, alice)
	require.NoError(t, err)
	require.Empty(t, positions)
}

func TestStore_ListByTokenOrdersByExactScore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// As text "9..." sorts above "1...", as integers it does not.
	require.NoError(t, s.Save(ctx, newPosition(alice, token, mustBig(t, "81"))))
	require.NoError(t, s.Save(ctx, newPosition(bob, token, mustBig(t, "1000000000000000000000000"))))
	require.NoError(t, s.Save(ctx, newPosition(carol, token, mustBig(t, "81"))))
	require.NoError(t, s.Save(ctx, newPosition(carol, other, mustBig(t, "1"))))

	positions, err := s.ListByToken(ctx, chainID, token)
	require.NoError(t, err)
	require.Len(t, positions, 3)
	require.Equal(t, bob, positions[0].User)
	require.Equal(t, alice, positions[1].User, "ties broken by user address")
	require.Equal(t, carol, positions[2].User)
}
