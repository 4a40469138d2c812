package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/checkpoint"
	"github.com/goran-ethernal/StakeIndexor/internal/common"
	"github.com/goran-ethernal/StakeIndexor/internal/config"
	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/internal/events"
	"github.com/goran-ethernal/StakeIndexor/internal/indexer"
	"github.com/goran-ethernal/StakeIndexor/internal/ledger"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/internal/metrics"
	"github.com/goran-ethernal/StakeIndexor/internal/migrations"
	"github.com/goran-ethernal/StakeIndexor/internal/position"
	"github.com/goran-ethernal/StakeIndexor/internal/rpc"
	"github.com/goran-ethernal/StakeIndexor/internal/syncer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║         StakeIndexor v%s               ║
║     Staking Position Event Indexer        ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "StakeIndexor - staking position indexer",
	Long: `StakeIndexor follows a staking contract, decodes its Staked, StakeIncreased,
LockExtended and Withdrawn events in chain order and keeps a SQLite table of
positions with their lock tier and conviction score up to date.`,
	Version: version,
	RunE:    runIndexer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(statusCmd, positionsCmd, schemaCmd)
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), banner, version)

	// Load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Cancel on shutdown signals
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewComponentLoggerFromConfig(common.ComponentIndexer, cfg.Logging)

	// Run migrations
	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(cfg.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer database.Close()

	// Initialize maintenance coordinator
	dbMaintenance := db.NewMaintenanceCoordinator(
		cfg.DB.Path,
		database,
		cfg.Maintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentMaintenance, cfg.Logging),
	)
	if err := dbMaintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start database maintenance: %w", err)
	}
	defer func() {
		if err := dbMaintenance.Stop(); err != nil {
			log.Warnf("Failed to stop database maintenance: %v", err)
		}
	}()

	// Start metrics server if enabled
	metricsServer := metrics.NewServer(
		cfg.Metrics,
		logger.NewComponentLoggerFromConfig(common.ComponentMetrics, cfg.Logging),
	)
	if err := metricsServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	defer func() {
		if err := metricsServer.Stop(context.Background()); err != nil {
			log.Warnf("Failed to stop metrics server: %v", err)
		}
	}()

	if !cfg.Indexer.Enabled() {
		log.Warn("Indexer is not configured (rpc_url, contract_address and chain_id are required), serving metrics only")
		<-ctx.Done()
		log.Info("StakeIndexor stopped successfully")
		return nil
	}

	// Initialize RPC client
	log.Info("Connecting to Ethereum node...")
	ethClient, err := rpc.NewClient(ctx, cfg.Indexer.RPCURL, cfg.Indexer.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer ethClient.Close()
	log.Infof("Connected to Ethereum node: %s", cfg.Indexer.RPCURL)

	reader, err := ledger.NewRPCReader(
		ethClient,
		cfg.Indexer,
		logger.NewComponentLoggerFromConfig(common.ComponentLedger, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger reader: %w", err)
	}

	positions := position.NewStore(
		database,
		dbMaintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentApplier, cfg.Logging),
	)
	applier := position.NewApplier(
		positions,
		cfg.Indexer.ChainID,
		logger.NewComponentLoggerFromConfig(common.ComponentApplier, cfg.Logging),
	)
	checkpoints := checkpoint.NewStore(
		database,
		dbMaintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentCheckpoint, cfg.Logging),
	)

	decoder, err := events.NewDecoder()
	if err != nil {
		return fmt.Errorf("failed to create event decoder: %w", err)
	}

	passRunner := syncer.New(
		syncer.Config{
			ChainID:            cfg.Indexer.ChainID,
			Contract:           ethcommon.HexToAddress(cfg.Indexer.ContractAddress),
			StartBlock:         cfg.Indexer.StartBlock,
			ChunkSize:          cfg.Indexer.ChunkSize,
			TimestampCacheSize: cfg.Indexer.TimestampCacheSize,
		},
		reader,
		decoder,
		applier,
		checkpoints,
		logger.NewComponentLoggerFromConfig(common.ComponentSyncer, cfg.Logging),
	)

	idx := indexer.New(passRunner, cfg.Indexer.PollInterval.Duration, log)

	metricsServer.SetHealthCheck(idx.Healthy)

	log.Infow("Starting StakeIndexor...",
		"chain_id", cfg.Indexer.ChainID,
		"contract", cfg.Indexer.ContractAddress,
		"start_block", cfg.Indexer.StartBlock,
	)

	g, gctx := errgroup.WithContext(ctx)
	idx.Start(gctx)

	g.Go(func() error {
		<-gctx.Done()
		idx.Stop()
		return nil
	})
	g.Go(func() error {
		<-idx.Done()
		return idx.Err()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("indexer failed: %w", err)
	}

	log.Info("StakeIndexor stopped successfully")
	return nil
}
