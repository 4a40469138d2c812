package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/StakeIndexor/pkg/rpc"
)

// Compile-time check to ensure Client implements pkgrpc.EthClient interface.
var _ pkgrpc.EthClient = (*Client)(nil)

const maxHeaderBatch = 100

// Client wraps the go-ethereum RPC client, adding retries and request metrics.
type Client struct {
	eth   *ethclient.Client
	rpc   *rpc.Client
	retry *config.RetryConfig
}

// NewClient dials endpoint. A nil retryCfg executes every call exactly once.
func NewClient(ctx context.Context, endpoint string, retryCfg *config.RetryConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &Client{
		eth:   ethclient.NewClient(rpcClient),
		rpc:   rpcClient,
		retry: retryCfg,
	}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.call(ctx, "eth_getLogs", func() error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// GetBlockHeader retrieves the header for a specific block number.
func (c *Client) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	return c.headerByNumber(ctx, new(big.Int).SetUint64(blockNum))
}

// GetLatestBlockHeader retrieves the latest block header.
func (c *Client) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, nil)
}

// GetFinalizedBlockHeader retrieves the finalized block header.
func (c *Client) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
}

// GetSafeBlockHeader retrieves the safe block header.
func (c *Client) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, big.NewInt(int64(rpc.SafeBlockNumber)))
}

// BatchGetBlockHeaders retrieves headers for multiple block numbers, at most
// maxHeaderBatch per batch request. Results are in the order of blockNums.
func (c *Client) BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error) {
	all := make([]*types.Header, 0, len(blockNums))

	for i := 0; i < len(blockNums); i += maxHeaderBatch {
		chunk := blockNums[i:min(i+maxHeaderBatch, len(blockNums))]
		results := make([]*types.Header, len(chunk))

		err := c.call(ctx, "eth_getBlockByNumber_batch", func() error {
			batch := make([]rpc.BatchElem, len(chunk))
			for j, blockNum := range chunk {
				batch[j] = rpc.BatchElem{
					Method: "eth_getBlockByNumber",
					Args:   []any{toBlockNumArg(blockNum), false},
					Result: &results[j],
				}
			}

			if err := c.rpc.BatchCallContext(ctx, batch); err != nil {
				return err
			}

			for j, elem := range batch {
				if elem.Error != nil {
					return elem.Error
				}
				if results[j] == nil {
					return fmt.Errorf("block %d not found", chunk[j])
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, results...)
	}

	return all, nil
}

func (c *Client) headerByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.call(ctx, "eth_getBlockByNumber", func() error {
		var err error
		header, err = c.eth.HeaderByNumber(ctx, number)
		return err
	})
	return header, err
}

// call runs fn with retries and records request count, duration and errors for method.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	RPCMethodInc(method)
	start := time.Now()

	err := retryWithBackoff(ctx, c.retry, method, fn)

	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, errorType(err))
	}

	return err
}

// toBlockNumArg converts a block number to hex format.
func toBlockNumArg(blockNum uint64) string {
	return fmt.Sprintf("0x%x", blockNum)
}
