package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"courtside/internal/logger"
)

type txKey struct{}

// Transactor runs fn inside a single database transaction. Repositories pick
// the transaction up from ctx through Conn, so services compose several
// repository calls into one atomic unit without passing *sqlx.Tx around.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TxManager struct {
	db      *sqlx.DB
	retries int
	backoff time.Duration
}

func NewTxManager(db *sqlx.DB, retries int) *TxManager {
	if retries < 0 {
		retries = 0
	}
	return &TxManager{db: db, retries: retries, backoff: 20 * time.Millisecond}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// WithinSerializableTx retries the whole of fn when Postgres aborts it with a
// serialization failure or deadlock.
func (m *TxManager) WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

func (m *TxManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= m.retries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying transaction", "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * m.backoff):
			}
		}

		err = m.once(ctx, opts, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("transaction aborted after %d attempts: %w", m.retries+1, err)
}

func (m *TxManager) once(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}
