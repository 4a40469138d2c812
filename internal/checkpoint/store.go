package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/russross/meddler"
)

// ErrCheckpointRegression is returned when a checkpoint would move backwards.
// It signals a defect in the caller, not a transient condition.
var ErrCheckpointRegression = errors.New("checkpoint regression")

// SyncState is the persisted checkpoint of one chain.
type SyncState struct {
	ChainID   uint64 `meddler:"chain_id"`
	LastBlock uint64 `meddler:"last_block"`
	UpdatedAt int64  `meddler:"updated_at"`
}

// UpdatedTime returns UpdatedAt as a time, zero when never advanced.
func (s *SyncState) UpdatedTime() time.Time {
	if s.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.UpdatedAt, 0).UTC()
}

// Store persists the highest fully applied block per chain in the sync_state table.
type Store struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
	now         func() time.Time
}

// NewStore creates a checkpoint store. A nil maintenance disables operation locking.
func NewStore(database *sql.DB, maintenance db.Maintenance, log *logger.Logger) *Store {
	if maintenance == nil {
		maintenance = db.NoOpMaintenance{}
	}

	return &Store{
		db:          database,
		log:         log,
		maintenance: maintenance,
		now:         time.Now,
	}
}

// GetLastSynced returns the checkpoint of chainID, creating it at 0 on first access.
func (s *Store) GetLastSynced(ctx context.Context, chainID uint64) (uint64, error) {
	state, err := s.State(ctx, chainID)
	if err != nil {
		return 0, err
	}
	return state.LastBlock, nil
}

// State returns the full checkpoint row of chainID, creating it at 0 on first access.
func (s *Store) State(ctx context.Context, chainID uint64) (*SyncState, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	if err := s.ensure(ctx, s.db, chainID); err != nil {
		return nil, err
	}

	var state SyncState
	if err := meddler.QueryRow(s.db, &state,
		`SELECT chain_id, last_block, updated_at FROM sync_state WHERE chain_id = ?`, chainID); err != nil {
		return nil, fmt.Errorf("failed to get sync state for chain %d: %w", chainID, err)
	}

	return &state, nil
}

// Advance moves the checkpoint of chainID to block. Advancing to the current
// block is allowed; moving backwards returns ErrCheckpointRegression and leaves
// the row unchanged.
func (s *Store) Advance(ctx context.Context, chainID, block uint64) (err error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Errorw("failed to rollback checkpoint advance", "error", rbErr)
			}
		}
	}()

	if err = s.ensure(ctx, tx, chainID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE sync_state SET last_block = ?, updated_at = ? WHERE chain_id = ? AND last_block <= ?`,
		block, s.now().Unix(), chainID, block)
	if err != nil {
		return fmt.Errorf("failed to advance checkpoint for chain %d: %w", chainID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		var current uint64
		if err = tx.QueryRowContext(ctx,
			`SELECT last_block FROM sync_state WHERE chain_id = ?`, chainID).Scan(&current); err != nil {
			return fmt.Errorf("failed to read checkpoint for chain %d: %w", chainID, err)
		}
		err = fmt.Errorf("%w: chain %d at block %d, refused move to %d",
			ErrCheckpointRegression, chainID, current, block)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	s.log.Debugw("checkpoint advanced", "chain_id", chainID, "block", block)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ensure creates the row of chainID at block 0 unless it exists.
// ON CONFLICT keeps concurrent first callers from creating duplicates.
func (s *Store) ensure(ctx context.Context, e execer, chainID uint64) error {
	if _, err := e.ExecContext(ctx,
		`INSERT INTO sync_state (chain_id, last_block, updated_at) VALUES (?, 0, 0)
		 ON CONFLICT(chain_id) DO NOTHING`, chainID); err != nil {
		return fmt.Errorf("failed to initialize sync state for chain %d: %w", chainID, err)
	}
	return nil
}
