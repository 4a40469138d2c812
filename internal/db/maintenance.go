package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/common"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/goran-ethernal/StakeIndexor/pkg/config"
)

// Maintenance coordinates store operations with periodic SQLite housekeeping.
type Maintenance interface {
	// Start begins background maintenance if enabled.
	Start(ctx context.Context) error
	// Stop stops background maintenance and waits for completion.
	Stop() error
	// AcquireOperationLock acquires a shared lock for a store operation.
	// Returns an unlock function that must be called when the operation completes.
	AcquireOperationLock() func()
	// RunMaintenance performs WAL checkpoint and VACUUM immediately.
	RunMaintenance(ctx context.Context) error
}

// NoOpMaintenance is used when no maintenance section is configured.
type NoOpMaintenance struct{}

func (NoOpMaintenance) Start(context.Context) error          { return nil }
func (NoOpMaintenance) Stop() error                          { return nil }
func (NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }
func (NoOpMaintenance) RunMaintenance(context.Context) error { return nil }

// MaintenanceCoordinator runs WAL checkpoints and VACUUM on the positions database.
// Store operations hold the read side of opLock, maintenance holds the write side,
// so a VACUUM never runs in the middle of an upsert.
type MaintenanceCoordinator struct {
	db     *sql.DB
	dbPath string
	cfg    config.MaintenanceConfig
	log    *logger.Logger

	opLock sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMaintenanceCoordinator returns a NoOpMaintenance when cfg is nil.
func NewMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg *config.MaintenanceConfig,
	log *logger.Logger,
) Maintenance {
	if cfg == nil {
		return NoOpMaintenance{}
	}

	return &MaintenanceCoordinator{
		db:     db,
		dbPath: dbPath,
		cfg:    *cfg,
		log:    log,
	}
}

// Start begins background maintenance if enabled.
func (m *MaintenanceCoordinator) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.log.Info("background maintenance is disabled")
		return nil
	}

	ctx, m.cancel = context.WithCancel(ctx)

	if m.cfg.VacuumOnStartup {
		if err := m.RunMaintenance(ctx); err != nil {
			m.log.Warnf("startup maintenance failed: %v", err)
		}
	}

	m.wg.Add(1)
	go m.worker(ctx)

	m.log.Infof("background maintenance started - interval: %v, checkpoint mode: %s",
		m.cfg.CheckInterval.Duration, m.cfg.WALCheckpointMode)

	return nil
}

// Stop stops background maintenance and waits for an in-flight run to finish.
func (m *MaintenanceCoordinator) Stop() error {
	if m.cancel == nil {
		return nil
	}

	m.cancel()
	m.wg.Wait()
	m.log.Info("background maintenance stopped")

	return nil
}

func (m *MaintenanceCoordinator) worker(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.CheckInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("periodic maintenance failed: %v", err)
			}
		}
	}
}

// RunMaintenance takes the exclusive lock and runs a WAL checkpoint followed by VACUUM.
func (m *MaintenanceCoordinator) RunMaintenance(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { maintenanceFinished(start, err) }()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	sizeBefore := m.totalSize()

	if err := m.walCheckpoint(ctx); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, "VACUUM"); err != nil {
		if strings.Contains(err.Error(), "database is locked") {
			return fmt.Errorf("cannot vacuum: database is locked (retry later)")
		}
		return fmt.Errorf("vacuum failed: %w", err)
	}

	sizeAfter := m.totalSize()
	DBSizeLog(sizeAfter)

	if sizeBefore > sizeAfter {
		m.log.Infof("maintenance reclaimed %d MB in %v",
			common.BytesToMB(uint64(sizeBefore-sizeAfter)), time.Since(start))
	} else {
		m.log.Debugf("maintenance completed in %v", time.Since(start))
	}

	return nil
}

// AcquireOperationLock acquires the shared side of the maintenance lock.
func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

func (m *MaintenanceCoordinator) walCheckpoint(ctx context.Context) error {
	var mode string
	if err := m.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if !strings.EqualFold(mode, "wal") {
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.cfg.WALCheckpointMode)
	if err := m.db.QueryRowContext(ctx, query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}

	WALCheckpointInc(strings.ToLower(m.cfg.WALCheckpointMode))

	if busy > 0 {
		m.log.Warnf("WAL checkpoint left %d busy pages", busy)
	}

	return nil
}

// totalSize is the size of the database file plus its WAL, 0 when unknown.
func (m *MaintenanceCoordinator) totalSize() int64 {
	var total int64
	for _, path := range []string{m.dbPath, m.dbPath + "-wal"} {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				m.log.Debugf("failed to stat %s: %v", path, err)
			}
			continue
		}
		total += info.Size()
	}
	return total
}
