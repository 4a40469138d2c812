package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/position"
	"github.com/goran-ethernal/StakeIndexor/tests/helpers"
	"github.com/stretchr/testify/require"
)

const testChainID = uint64(31337)

var (
	alice  = ethcommon.HexToAddress("0xA11CEa11ceA11ceA11cEa11CEA11CeA11ceA11cE")
	tokenA = ethcommon.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB = ethcommon.HexToAddress("0x2222222222222222222222222222222222222222")
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func indexerConfig(t *testing.T, rpcURL, dbPath string) string {
	t.Helper()

	return writeConfig(t, fmt.Sprintf(`
indexer:
  rpc_url: %q
  contract_address: "0x5fbdb2315678afecb367f032d93f642f64180aa3"
  chain_id: %d
db:
  path: %q
`, rpcURL, testChainID, dbPath))
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// newHeadServer answers every JSON-RPC call with a header at block head.
func newHeadServer(t *testing.T, head uint64) *httptest.Server {
	t.Helper()

	zeroHash := "0x" + strings.Repeat("0", 64)
	header := map[string]any{
		"parentHash":       zeroHash,
		"sha3Uncles":       zeroHash,
		"miner":            "0x" + strings.Repeat("0", 40),
		"stateRoot":        zeroHash,
		"transactionsRoot": zeroHash,
		"receiptsRoot":     zeroHash,
		"logsBloom":        "0x" + strings.Repeat("0", 512),
		"difficulty":       "0x0",
		"number":           fmt.Sprintf("0x%x", head),
		"gasLimit":         "0x1c9c380",
		"gasUsed":          "0x0",
		"timestamp":        "0x6553f100",
		"extraData":        "0x",
		"mixHash":          zeroHash,
		"nonce":            "0x0000000000000000",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": header})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRun_WithoutIndexerServesUntilCancelled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "positions.db")
	cfgPath := writeConfig(t, fmt.Sprintf("db:\n  path: %q\n", dbPath))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "--config", cfgPath)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after its context was cancelled")
	}

	// migrations ran against the configured database
	_, err := os.Stat(dbPath)
	require.NoError(t, err)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "logging:\n  default_level: info\n")

	_, err := execute(t, context.Background(), "--config", cfgPath)
	require.ErrorContains(t, err, "db.path is required")
}

func TestPositions_ByUser(t *testing.T) {
	database, dbCfg := helpers.NewTestDB(t, "positions.db")
	store := position.NewStore(database, nil, logger.NewNopLogger())

	lockEnd := int64(1_700_000_000 + 40*86400)
	for _, tok := range []ethcommon.Address{tokenB, tokenA} {
		p := &position.Position{User: alice, Token: tok, ChainID: testChainID, CreatedAt: 1_700_000_000, UpdatedAt: 1_700_000_000}
		p.SetAmount(big.NewInt(10_000))
		p.SetLockEnd(lockEnd, 1_700_000_000)
		require.NoError(t, store.Save(context.Background(), p))
	}

	// another chain is not listed
	other := &position.Position{User: alice, Token: tokenA, ChainID: 1, Amount: big.NewInt(1), ConvictionScore: big.NewInt(1)}
	require.NoError(t, store.Save(context.Background(), other))

	cfgPath := indexerConfig(t, "http://127.0.0.1:1", dbCfg.Path)
	out, err := execute(t, context.Background(), "--config", cfgPath, "positions", "--user", alice.Hex())
	require.NoError(t, err)

	var views []positionView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)

	require.Equal(t, tokenA.Hex(), views[0].Token)
	require.Equal(t, tokenB.Hex(), views[1].Token)
	for _, v := range views {
		require.Equal(t, alice.Hex(), v.User)
		require.Equal(t, "10000", v.Amount)
		require.Equal(t, "100", v.ConvictionScore)
		require.Equal(t, "champion", v.Tier)
		require.Equal(t, time.Unix(lockEnd, 0).UTC().Format(time.RFC3339), v.LockEnd)
	}
}

func TestPositions_InvalidAddress(t *testing.T) {
	_, dbCfg := helpers.NewTestDB(t, "positions.db")
	cfgPath := indexerConfig(t, "http://127.0.0.1:1", dbCfg.Path)

	_, err := execute(t, context.Background(), "--config", cfgPath, "positions", "--user", "nope")
	require.ErrorContains(t, err, "invalid user address")
}

func TestStatus_ReportsBlocksBehind(t *testing.T) {
	_, dbCfg := helpers.NewTestDB(t, "status.db")
	srv := newHeadServer(t, 100)
	cfgPath := indexerConfig(t, srv.URL, dbCfg.Path)

	out, err := execute(t, context.Background(), "--config", cfgPath, "status")
	require.NoError(t, err)

	require.Contains(t, out, "last synced:     0")
	require.Contains(t, out, "positions:       0")
	require.Contains(t, out, "head (latest): 100")
	require.Contains(t, out, "blocks behind:   100")
}

func TestSchema_PrintsConfigSchema(t *testing.T) {
	out, err := execute(t, context.Background(), "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	require.Equal(t, "StakeIndexor configuration", schema["title"])
}
