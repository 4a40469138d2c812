package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	icommon "github.com/goran-ethernal/StakeIndexor/internal/common"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/rpc/mocks"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var stakingContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func header(number, timestamp uint64) *types.Header {
	return &types.Header{Number: new(big.Int).SetUint64(number), Time: timestamp}
}

func newTestReader(t *testing.T, finality string, lag uint64) (*RPCReader, *mocks.EthClient) {
	t.Helper()

	client := mocks.NewEthClient(t)
	reader, err := NewRPCReader(client, &config.IndexerConfig{
		Finality:     finality,
		FinalizedLag: lag,
		RPCTimeout:   icommon.NewDuration(time.Second),
	}, logger.NewNopLogger())
	require.NoError(t, err)

	return reader, client
}

func TestNewRPCReader_InvalidFinality(t *testing.T) {
	_, err := NewRPCReader(mocks.NewEthClient(t), &config.IndexerConfig{Finality: "pending"}, logger.NewNopLogger())
	require.ErrorContains(t, err, "invalid block finality")
}

func TestRPCReader_CurrentHead(t *testing.T) {
	ctx := context.Background()

	t.Run("latest minus lag", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 5)
		client.EXPECT().GetLatestBlockHeader(mock.Anything).Return(header(100, 0), nil)

		head, err := reader.CurrentHead(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(95), head)
	})

	t.Run("latest lag exceeds head", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 50)
		client.EXPECT().GetLatestBlockHeader(mock.Anything).Return(header(10, 0), nil)

		head, err := reader.CurrentHead(ctx)
		require.NoError(t, err)
		require.Zero(t, head)
	})

	t.Run("safe ignores lag", func(t *testing.T) {
		reader, client := newTestReader(t, "safe", 5)
		client.EXPECT().GetSafeBlockHeader(mock.Anything).Return(header(80, 0), nil)

		head, err := reader.CurrentHead(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(80), head)
	})

	t.Run("finalized", func(t *testing.T) {
		reader, client := newTestReader(t, "FINALIZED", 0)
		client.EXPECT().GetFinalizedBlockHeader(mock.Anything).Return(header(64, 0), nil)

		head, err := reader.CurrentHead(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(64), head)
	})

	t.Run("rpc error propagates", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 0)
		client.EXPECT().GetLatestBlockHeader(mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := reader.CurrentHead(ctx)
		require.ErrorContains(t, err, "connection refused")
	})
}

func TestRPCReader_CallsCarryDeadline(t *testing.T) {
	reader, client := newTestReader(t, "latest", 0)

	client.EXPECT().GetBlockHeader(mock.Anything, uint64(7)).
		RunAndReturn(func(ctx context.Context, _ uint64) (*types.Header, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			require.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
			return header(7, 1_700_000_000), nil
		})

	ts, err := reader.BlockTimestamp(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, time.Unix(1_700_000_000, 0).UTC(), ts)
}

func TestRPCReader_FetchLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("single range", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 0)
		client.EXPECT().GetLogs(mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
			return q.FromBlock.Uint64() == 100 && q.ToBlock.Uint64() == 199 &&
				len(q.Addresses) == 1 && q.Addresses[0] == stakingContract && len(q.Topics) == 0
		})).Return([]types.Log{{BlockNumber: 150}}, nil)

		logs, err := reader.FetchLogs(ctx, stakingContract, 100, 199)
		require.NoError(t, err)
		require.Len(t, logs, 1)
	})

	t.Run("splits on too many results", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 0)
		rangeIs := func(from, to uint64) any {
			return mock.MatchedBy(func(q ethereum.FilterQuery) bool {
				return q.FromBlock.Uint64() == from && q.ToBlock.Uint64() == to
			})
		}

		client.EXPECT().GetLogs(mock.Anything, rangeIs(0, 99)).
			Return(nil, errors.New("query returned more than 10000 results")).Once()
		client.EXPECT().GetLogs(mock.Anything, rangeIs(0, 49)).
			Return([]types.Log{{BlockNumber: 10}}, nil).Once()
		client.EXPECT().GetLogs(mock.Anything, rangeIs(50, 99)).
			Return([]types.Log{{BlockNumber: 60}, {BlockNumber: 70}}, nil).Once()

		logs, err := reader.FetchLogs(ctx, stakingContract, 0, 99)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		require.Equal(t, uint64(10), logs[0].BlockNumber)
		require.Equal(t, uint64(70), logs[2].BlockNumber)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		reader, client := newTestReader(t, "latest", 0)
		client.EXPECT().GetLogs(mock.Anything, mock.Anything).Return(nil, errors.New("503 service unavailable"))

		_, err := reader.FetchLogs(ctx, stakingContract, 0, 99)
		require.ErrorContains(t, err, "failed to fetch logs for blocks [0, 99]")
	})

	t.Run("inverted range", func(t *testing.T) {
		reader, _ := newTestReader(t, "latest", 0)
		_, err := reader.FetchLogs(ctx, stakingContract, 10, 9)
		require.Error(t, err)
	})
}

func TestRPCReader_BlockTimestamps(t *testing.T) {
	reader, client := newTestReader(t, "latest", 0)
	client.EXPECT().BatchGetBlockHeaders(mock.Anything, []uint64{3, 5}).
		Return([]*types.Header{header(3, 1000), header(5, 1024)}, nil)

	got, err := reader.BlockTimestamps(context.Background(), []uint64{3, 5})
	require.NoError(t, err)
	require.Equal(t, map[uint64]time.Time{
		3: time.Unix(1000, 0).UTC(),
		5: time.Unix(1024, 0).UTC(),
	}, got)

	empty, err := reader.BlockTimestamps(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
