package booking

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) (*Booking, error)
	Get(ctx context.Context, id int) (*Booking, error)
	GetForUpdate(ctx context.Context, id int) (*Booking, error)
	// ActiveInWindow returns non-cancelled bookings on courtID that intersect
	// [from, to). Inside a transaction the rows are locked.
	ActiveInWindow(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error)
	Update(ctx context.Context, b *Booking, expected Status) (*Booking, error)
	UpdateStatus(ctx context.Context, id int, from, to Status) (*Booking, error)
	ListByCourt(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID int) ([]Booking, error)
	Delete(ctx context.Context, id int) error
}
