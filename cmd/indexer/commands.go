package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/checkpoint"
	"github.com/goran-ethernal/StakeIndexor/internal/common"
	"github.com/goran-ethernal/StakeIndexor/internal/config"
	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/internal/ledger"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/migrations"
	"github.com/goran-ethernal/StakeIndexor/internal/position"
	"github.com/goran-ethernal/StakeIndexor/internal/rpc"
	pkgconfig "github.com/goran-ethernal/StakeIndexor/pkg/config"
	"github.com/spf13/cobra"
)

const statusTimeout = 30 * time.Second

var (
	positionsUser  string
	positionsToken string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync checkpoint and how far it is behind the chain head",
	RunE:  runStatus,
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List indexed positions of a user or of a token",
	Long: `List indexed positions as JSON. With --user, all positions of the user ordered
by token. With --token, all positions in the token ordered by conviction score.`,
	RunE: runPositions,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.GenerateSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	positionsCmd.Flags().StringVar(&positionsUser, "user", "", "user address")
	positionsCmd.Flags().StringVar(&positionsToken, "token", "", "token address")
	positionsCmd.MarkFlagsMutuallyExclusive("user", "token")
	positionsCmd.MarkFlagsOneRequired("user", "token")
}

// openDatabase loads the config and opens the migrated positions database.
func openDatabase() (*pkgconfig.Config, *sql.DB, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Indexer.Enabled() {
		return nil, nil, fmt.Errorf("indexer section is not configured")
	}

	if err := migrations.RunMigrations(cfg.DB); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database: %w", err)
	}

	return cfg, database, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	checkpoints := checkpoint.NewStore(database, nil,
		logger.NewComponentLoggerFromConfig(common.ComponentCheckpoint, cfg.Logging))
	state, err := checkpoints.State(ctx, cfg.Indexer.ChainID)
	if err != nil {
		return err
	}

	positions := position.NewStore(database, nil,
		logger.NewComponentLoggerFromConfig(common.ComponentApplier, cfg.Logging))
	count, err := positions.Count(ctx, cfg.Indexer.ChainID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chain id:        %d\n", state.ChainID)
	fmt.Fprintf(out, "last synced:     %d\n", state.LastBlock)
	if state.UpdatedAt != 0 {
		fmt.Fprintf(out, "updated at:      %s\n", state.UpdatedTime().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "positions:       %d\n", count)

	client, err := rpc.NewClient(ctx, cfg.Indexer.RPCURL, cfg.Indexer.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	reader, err := ledger.NewRPCReader(client, cfg.Indexer,
		logger.NewComponentLoggerFromConfig(common.ComponentLedger, cfg.Logging))
	if err != nil {
		return err
	}

	head, err := reader.CurrentHead(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain head: %w", err)
	}

	var behind uint64
	if head > state.LastBlock {
		behind = head - state.LastBlock
	}
	fmt.Fprintf(out, "head (%s): %d\n", cfg.Indexer.Finality, head)
	fmt.Fprintf(out, "blocks behind:   %d\n", behind)

	return nil
}

type positionView struct {
	User            string `json:"user"`
	Token           string `json:"token"`
	Amount          string `json:"amount"`
	LockEnd         string `json:"lock_end"`
	Tier            string `json:"tier"`
	ConvictionScore string `json:"conviction_score"`
}

func runPositions(cmd *cobra.Command, args []string) error {
	cfg, database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	store := position.NewStore(database, nil,
		logger.NewComponentLoggerFromConfig(common.ComponentApplier, cfg.Logging))

	var list []*position.Position
	switch {
	case positionsUser != "":
		if !ethcommon.IsHexAddress(positionsUser) {
			return fmt.Errorf("invalid user address %q", positionsUser)
		}
		list, err = store.ListByUser(cmd.Context(), cfg.Indexer.ChainID, ethcommon.HexToAddress(positionsUser))
	default:
		if !ethcommon.IsHexAddress(positionsToken) {
			return fmt.Errorf("invalid token address %q", positionsToken)
		}
		list, err = store.ListByToken(cmd.Context(), cfg.Indexer.ChainID, ethcommon.HexToAddress(positionsToken))
	}
	if err != nil {
		return err
	}

	views := make([]positionView, 0, len(list))
	for _, p := range list {
		views = append(views, positionView{
			User:            p.User.Hex(),
			Token:           p.Token.Hex(),
			Amount:          p.Amount.String(),
			LockEnd:         p.LockEndTime().Format(time.RFC3339),
			Tier:            p.Tier.String(),
			ConvictionScore: p.ConvictionScore.String(),
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}
