package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// TxManager runs units of work in a database transaction carried by the
// context. Nested RunInTx calls are not supported: with a single pooled
// connection the inner Begin would block forever.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn within a transaction. It commits when fn returns nil,
// rolls back when fn returns an error, and rolls back then re-panics when
// fn panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreError{Op: "begin transaction", Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", &models.StoreError{Op: "rollback", Err: rbErr}, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &models.StoreError{Op: "commit transaction", Err: err}
	}

	return nil
}
