package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakeIndexor/internal/db"
	"github.com/goran-ethernal/StakeIndexor/internal/logger"
	"github.com/russross/meddler"
)

const positionsTable = "positions"

// ErrNotFound is returned by Get when no position exists for the key.
var ErrNotFound = errors.New("position not found")

// Store reads and writes rows of the positions table.
// Every write touches exactly one row, so no cross-event transaction is needed.
type Store struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
}

// NewStore creates a position store. A nil maintenance disables operation locking.
func NewStore(database *sql.DB, maintenance db.Maintenance, log *logger.Logger) *Store {
	if maintenance == nil {
		maintenance = db.NoOpMaintenance{}
	}

	return &Store{db: database, log: log, maintenance: maintenance}
}

// Get returns the position for key or ErrNotFound.
func (s *Store) Get(ctx context.Context, key Key) (*Position, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	return s.get(ctx, key)
}

func (s *Store) get(ctx context.Context, key Key) (*Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM positions WHERE user_address = ? AND token_address = ? AND chain_id = ?`,
		db.AddressKey(key.User), db.AddressKey(key.Token), key.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}

	var p Position
	if err := meddler.ScanRow(rows, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &p, nil
}

// Save inserts p or replaces every non-key column of the row with the same key.
func (s *Store) Save(ctx context.Context, p *Position) error {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	columns, err := meddler.Default.Columns(p, true)
	if err != nil {
		return fmt.Errorf("failed to map position columns: %w", err)
	}

	values, err := meddler.Default.Values(p, true)
	if err != nil {
		return fmt.Errorf("failed to map position values: %w", err)
	}

	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		switch col {
		case "user_address", "token_address", "chain_id":
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)
		 ON CONFLICT(user_address, token_address, chain_id) DO UPDATE SET %s`,
		positionsTable,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		strings.Join(updates, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to save position %s/%s: %w", p.User.Hex(), p.Token.Hex(), err)
	}

	return nil
}

// Delete removes the position for key. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, key Key) (bool, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM positions WHERE user_address = ? AND token_address = ? AND chain_id = ?`,
		db.AddressKey(key.User), db.AddressKey(key.Token), key.ChainID)
	if err != nil {
		return false, fmt.Errorf("failed to delete position: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListByUser returns every position of user on chainID ordered by token.
func (s *Store) ListByUser(ctx context.Context, chainID uint64, user common.Address) ([]*Position, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var positions []*Position
	if err := meddler.QueryAll(s.db, &positions,
		`SELECT * FROM positions WHERE chain_id = ? AND user_address = ? ORDER BY token_address`,
		chainID, db.AddressKey(user)); err != nil {
		return nil, fmt.Errorf("failed to list positions of %s: %w", user.Hex(), err)
	}

	return positions, nil
}

// ListByToken returns the supporters of token on chainID, highest conviction score first.
// Ties are broken by user address. Scores are compared as exact integers.
func (s *Store) ListByToken(ctx context.Context, chainID uint64, token common.Address) ([]*Position, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var positions []*Position
	if err := meddler.QueryAll(s.db, &positions,
		`SELECT * FROM positions WHERE chain_id = ? AND token_address = ?`,
		chainID, db.AddressKey(token)); err != nil {
		return nil, fmt.Errorf("failed to list positions of token %s: %w", token.Hex(), err)
	}

	slices.SortFunc(positions, func(a, b *Position) int {
		if c := b.ConvictionScore.Cmp(a.ConvictionScore); c != 0 {
			return c
		}
		return strings.Compare(db.AddressKey(a.User), db.AddressKey(b.User))
	})

	return positions, nil
}

// Count returns the number of positions on chainID.
func (s *Store) Count(ctx context.Context, chainID uint64) (int, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM positions WHERE chain_id = ?`, chainID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return n, nil
}
