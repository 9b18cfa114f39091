package bonus

import (
	"context"
	"time"
)

type Repository interface {
	Latest(ctx context.Context, userID int) (Snapshot, error)
	// Insert fails with ErrVersionConflict when tx.Version is already taken
	// for the user.
	Insert(ctx context.Context, tx *Transaction) (*Transaction, error)
	Get(ctx context.Context, id int) (*Transaction, error)
	History(ctx context.Context, userID, limit int) ([]Transaction, error)
	ListByUser(ctx context.Context, userID int) ([]Transaction, error)
	Summary(ctx context.Context, userID int) (*Summary, error)
	FindExpiring(ctx context.Context, from, until time.Time) ([]Transaction, error)
	FindExpired(ctx context.Context, now time.Time) ([]Transaction, error)
	UpdateDetails(ctx context.Context, id int, description string, expiresAt *time.Time) (*Transaction, error)
}
