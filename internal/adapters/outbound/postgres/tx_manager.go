package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that TxManager implements outbound.TxManager
var _ outbound.TxManager = (*TxManager)(nil)

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager provides transaction lifecycle management for the store.
//
// Usage:
//
//	txm, _ := postgres.NewTxManager(pool, logger)
//	err := txm.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    if _, err := tx.Exec(ctx, "UPDATE offers SET ..."); err != nil {
//	        return err // triggers rollback
//	    }
//	    return nil
//	})
type TxManager struct {
	db     Beginner
	logger *slog.Logger
}

// NewTxManager creates a new transaction manager.
// Returns an error if the database connection is nil.
func NewTxManager(db Beginner, logger *slog.Logger) (*TxManager, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TxManager{
		db:     db,
		logger: logger,
	}, nil
}

// TxOptions configures transaction behavior.
type TxOptions struct {
	// IsoLevel sets the transaction isolation level.
	// Default: uses database default (ReadCommitted).
	IsoLevel pgx.TxIsoLevel
	// AccessMode marks the transaction as read-only or read-write.
	AccessMode pgx.TxAccessMode
}

// WithTransaction executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn succeeds, the transaction is committed.
//
// The transaction is automatically rolled back if:
//   - fn returns an error
//   - fn panics (panic is re-raised after rollback)
//   - commit fails
func (m *TxManager) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return m.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions executes fn within a database transaction with custom options.
func (m *TxManager) WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx pgx.Tx) error) error {
	var txOpts pgx.TxOptions
	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
	}

	tx, err := m.db.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Rollback uses a detached context so a cancelled request still releases the connection.
	rollback := func() error {
		err := tx.Rollback(context.WithoutCancel(ctx))
		if errors.Is(err, pgx.ErrTxClosed) {
			return nil
		}
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := rollback(); rbErr != nil {
				m.logger.Error("failed to rollback transaction after panic", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := rollback(); rbErr != nil {
			m.logger.Error("failed to rollback transaction", "error", rbErr, "originalError", err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
