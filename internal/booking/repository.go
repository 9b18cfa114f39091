package booking

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
	ErrBookingNotFound = fmt.Errorf("booking %w", apperr.ErrNotFound)
	ErrCourtNotFound   = fmt.Errorf("court %w", apperr.ErrNotFound)
	// ErrStatusChanged means a conditional write found the booking in a
	// different status than the caller read.
	ErrStatusChanged = fmt.Errorf("%w: booking status changed concurrently", apperr.ErrInvalidTransition)
)

const (
	overlapConstraint = "bookings_no_overlap"

	bookingColumns = `id, court_id, start_time, end_time, duration_minutes, status,
		total_amount, currency, booked_by, purpose, notes, created_at, updated_at`
)

type repository struct {
	db    *sqlx.DB
	table db.Table[Booking]
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{
		db:    conn,
		table: db.NewTable[Booking](conn, "bookings", bookingColumns, ErrBookingNotFound),
	}
}

func (r *repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (court_id, start_time, end_time, duration_minutes, status,
			total_amount, currency, booked_by, purpose, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + bookingColumns

	var created Booking
	err := db.Conn(ctx, r.db).GetContext(ctx, &created, query,
		b.CourtID, b.StartTime, b.EndTime, b.DurationMinutes, b.Status,
		b.TotalAmount, b.Currency, b.BookedBy, b.Purpose, b.Notes,
	)
	if err != nil {
		return nil, translateWriteError(err)
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Booking, error) {
	return r.table.Get(ctx, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int) (*Booking, error) {
	return r.table.GetForUpdate(ctx, id)
}

func (r *repository) ActiveInWindow(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1
		  AND status <> 'cancelled'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time ASC`
	if db.InTx(ctx) {
		query += " FOR UPDATE"
	}

	bookings := []Booking{}
	if err := db.Conn(ctx, r.db).SelectContext(ctx, &bookings, query, courtID, from, to); err != nil {
		return nil, fmt.Errorf("load court bookings: %w", err)
	}
	return bookings, nil
}

func (r *repository) Update(ctx context.Context, b *Booking, expected Status) (*Booking, error) {
	query := `
		UPDATE bookings
		SET court_id = $1,
			start_time = $2,
			end_time = $3,
			duration_minutes = $4,
			total_amount = $5,
			currency = $6,
			purpose = $7,
			notes = $8,
			updated_at = NOW()
		WHERE id = $9 AND status = $10
		RETURNING ` + bookingColumns

	var updated Booking
	err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query,
		b.CourtID, b.StartTime, b.EndTime, b.DurationMinutes,
		b.TotalAmount, b.Currency, b.Purpose, b.Notes,
		b.ID, expected,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, translateWriteError(err)
	}
	return &updated, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, from, to Status) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + bookingColumns

	var updated Booking
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, to, id, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return &updated, nil
}

func (r *repository) ListByCourt(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error) {
	if from.IsZero() && to.IsZero() {
		return r.table.Select(ctx, "court_id = $1", "start_time ASC", courtID)
	}
	if to.IsZero() {
		return r.table.Select(ctx, "court_id = $1 AND end_time > $2", "start_time ASC", courtID, from)
	}
	return r.table.Select(ctx, "court_id = $1 AND end_time > $2 AND start_time < $3", "start_time ASC", courtID, from, to)
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Booking, error) {
	return r.table.Select(ctx, "booked_by = $1", "start_time DESC", userID)
}

// Delete removes the booking together with its participants.
func (r *repository) Delete(ctx context.Context, id int) error {
	return r.table.Delete(ctx, id)
}

func translateWriteError(err error) error {
	switch {
	case db.IsExclusionViolation(err, overlapConstraint):
		return fmt.Errorf("%w: overlapping booking exists", apperr.ErrCourtUnavailable)
	case db.IsForeignKeyViolation(err, ""):
		return ErrCourtNotFound
	case db.IsCheckViolation(err, ""):
		return fmt.Errorf("%w: booking violates a table constraint", apperr.ErrValidation)
	default:
		return fmt.Errorf("write booking: %w", err)
	}
}
