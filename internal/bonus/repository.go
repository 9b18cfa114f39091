package bonus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var (
	ErrTransactionNotFound = fmt.Errorf("bonus transaction %w", apperr.ErrNotFound)
	// ErrVersionConflict means another writer appended to the user's ledger
	// between our read and our insert.
	ErrVersionConflict = fmt.Errorf("%w: bonus ledger version already taken", apperr.ErrConflict)
)

const (
	versionConstraint = "bonus_transactions_user_version_key"

	transactionColumns = `id, user_id, version, type, points_change, current_balance_after,
		description, related_order_id, related_booking_id, expires_at, created_at`
)

type repository struct {
	db    *sqlx.DB
	table db.Table[Transaction]
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{
		db:    conn,
		table: db.NewTable[Transaction](conn, "bonus_transactions", transactionColumns, ErrTransactionNotFound),
	}
}

func (r *repository) Latest(ctx context.Context, userID int) (Snapshot, error) {
	query := `
		SELECT current_balance_after, version
		FROM bonus_transactions
		WHERE user_id = $1
		ORDER BY version DESC
		LIMIT 1`

	var snap Snapshot
	err := db.Conn(ctx, r.db).GetContext(ctx, &snap, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read ledger head: %w", err)
	}
	return snap, nil
}

func (r *repository) Insert(ctx context.Context, tx *Transaction) (*Transaction, error) {
	query := `
		INSERT INTO bonus_transactions (user_id, version, type, points_change, current_balance_after,
			description, related_order_id, related_booking_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + transactionColumns

	var created Transaction
	err := db.Conn(ctx, r.db).GetContext(ctx, &created, query,
		tx.UserID, tx.Version, tx.Type, tx.PointsChange, tx.CurrentBalanceAfter,
		tx.Description, tx.RelatedOrderID, tx.RelatedBookingID, tx.ExpiresAt,
	)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, versionConstraint):
			return nil, ErrVersionConflict
		case db.IsCheckViolation(err, ""):
			return nil, fmt.Errorf("%w: ledger row rejected by table check", apperr.ErrInsufficientBalance)
		}
		return nil, fmt.Errorf("insert bonus transaction: %w", err)
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Transaction, error) {
	return r.table.Get(ctx, id)
}

func (r *repository) History(ctx context.Context, userID, limit int) ([]Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM bonus_transactions WHERE user_id = $1 ORDER BY version DESC LIMIT $2`,
		transactionColumns)

	rows := []Transaction{}
	if err := db.Conn(ctx, r.db).SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("bonus history: %w", err)
	}
	return rows, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Transaction, error) {
	return r.table.Select(ctx, "user_id = $1", "version ASC", userID)
}

func (r *repository) Summary(ctx context.Context, userID int) (*Summary, error) {
	query := `
		SELECT
			$1::int AS user_id,
			COALESCE(SUM(points_change) FILTER (WHERE type = 'earned'), 0) AS total_earned,
			COALESCE(SUM(points_change) FILTER (WHERE type = 'spent'), 0) AS total_spent,
			COALESCE((
				SELECT current_balance_after FROM bonus_transactions
				WHERE user_id = $1 ORDER BY version DESC LIMIT 1
			), 0) AS current_balance,
			COUNT(*) AS transaction_count
		FROM bonus_transactions
		WHERE user_id = $1`

	var s Summary
	if err := db.Conn(ctx, r.db).GetContext(ctx, &s, query, userID); err != nil {
		return nil, fmt.Errorf("bonus summary: %w", err)
	}
	return &s, nil
}

// FindExpiring lists earned rows whose expiry falls in (from, until].
func (r *repository) FindExpiring(ctx context.Context, from, until time.Time) ([]Transaction, error) {
	return r.table.Select(ctx,
		"type = 'earned' AND expires_at IS NOT NULL AND expires_at > $1 AND expires_at <= $2",
		"expires_at ASC", from, until)
}

func (r *repository) FindExpired(ctx context.Context, now time.Time) ([]Transaction, error) {
	return r.table.Select(ctx,
		"type = 'earned' AND expires_at IS NOT NULL AND expires_at <= $1",
		"expires_at ASC", now)
}

// UpdateDetails touches only the descriptive columns of a row.
func (r *repository) UpdateDetails(ctx context.Context, id int, description string, expiresAt *time.Time) (*Transaction, error) {
	query := `
		UPDATE bonus_transactions
		SET description = $1, expires_at = $2
		WHERE id = $3
		RETURNING ` + transactionColumns

	var updated Transaction
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, description, expiresAt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("update bonus transaction: %w", err)
	}
	return &updated, nil
}
