package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type (
	txKey     struct{}
	activeKey struct{}
)

// TxManager runs a function inside a single database transaction. Repositories
// built on Executor pick the transaction up from the context, so several
// repository calls commit or roll back together.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SQLTxManager struct {
	DB *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *SQLTxManager {
	return &SQLTxManager{DB: db}
}

func (m *SQLTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(WithActiveTx(context.WithValue(ctx, txKey{}, tx))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Executor returns the transaction stored in ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// WithActiveTx marks ctx as running inside a transaction. TxManager
// implementations that do not use *sqlx.Tx call it so InTx stays accurate.
func WithActiveTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, activeKey{}, true)
}

// InTx reports whether ctx runs inside a transaction.
func InTx(ctx context.Context) bool {
	active, _ := ctx.Value(activeKey{}).(bool)
	return active
}
