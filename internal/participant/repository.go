package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var (
	ErrParticipantNotFound = fmt.Errorf("participant %w", apperr.ErrNotFound)
	ErrBookingNotFound     = fmt.Errorf("booking %w", apperr.ErrNotFound)
)

const (
	uniqueConstraint   = "booking_participants_booking_id_user_id_key"
	overpaidConstraint = "booking_participants_paid_within_owed"

	participantColumns = `id, booking_id, user_id, amount_owed, amount_paid, payment_status,
		participation_status, is_host, created_at, updated_at`
)

type repository struct {
	db    *sqlx.DB
	table db.Table[Participant]
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{
		db:    conn,
		table: db.NewTable[Participant](conn, "booking_participants", participantColumns, ErrParticipantNotFound),
	}
}

func (r *repository) Create(ctx context.Context, p *Participant) (*Participant, error) {
	query := `
		INSERT INTO booking_participants (booking_id, user_id, amount_owed, amount_paid,
			payment_status, participation_status, is_host)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + participantColumns

	var created Participant
	err := db.Conn(ctx, r.db).GetContext(ctx, &created, query,
		p.BookingID, p.UserID, p.AmountOwed, p.AmountPaid,
		p.PaymentStatus, p.ParticipationStatus, p.IsHost,
	)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, uniqueConstraint):
			return nil, fmt.Errorf("%w: user %d on booking %d", apperr.ErrDuplicateParticipant, p.UserID, p.BookingID)
		case db.IsForeignKeyViolation(err, ""):
			return nil, ErrBookingNotFound
		}
		return nil, translateAmountError(err)
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Participant, error) {
	return r.table.Get(ctx, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int) (*Participant, error) {
	return r.table.GetForUpdate(ctx, id)
}

func (r *repository) UpdatePayment(ctx context.Context, p *Participant) (*Participant, error) {
	query := `
		UPDATE booking_participants
		SET amount_owed = $1, amount_paid = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + participantColumns

	var updated Participant
	err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, p.AmountOwed, p.AmountPaid, p.PaymentStatus, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, translateAmountError(err)
	}
	return &updated, nil
}

func (r *repository) UpdateParticipation(ctx context.Context, id int, status ParticipationStatus) (*Participant, error) {
	query := `
		UPDATE booking_participants
		SET participation_status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + participantColumns

	var updated Participant
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, status, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("update participation: %w", err)
	}
	return &updated, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID int) ([]Participant, error) {
	return r.table.Select(ctx, "booking_id = $1", "is_host DESC, id ASC", bookingID)
}

func (r *repository) Stats(ctx context.Context, bookingID int) (*PaymentStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount_owed), 0) AS total_owed,
			COALESCE(SUM(amount_paid), 0) AS total_paid,
			COUNT(*) AS participant_count,
			COUNT(*) FILTER (WHERE payment_status = 'success') AS fully_paid_count
		FROM booking_participants
		WHERE booking_id = $1`

	var stats PaymentStats
	if err := db.Conn(ctx, r.db).GetContext(ctx, &stats, query, bookingID); err != nil {
		return nil, fmt.Errorf("participant stats: %w", err)
	}
	return &stats, nil
}

func (r *repository) IsHost(ctx context.Context, bookingID, userID int) (bool, error) {
	return db.Exists(ctx, db.Conn(ctx, r.db), `
		SELECT EXISTS(
			SELECT 1 FROM booking_participants
			WHERE booking_id = $1 AND user_id = $2 AND is_host
		)`, bookingID, userID)
}

func (r *repository) IsParticipant(ctx context.Context, bookingID, userID int) (bool, error) {
	return db.Exists(ctx, db.Conn(ctx, r.db), `
		SELECT EXISTS(
			SELECT 1 FROM booking_participants
			WHERE booking_id = $1 AND user_id = $2
		)`, bookingID, userID)
}

func (r *repository) CountHosts(ctx context.Context, bookingID int) (int, error) {
	var n int
	err := db.Conn(ctx, r.db).GetContext(ctx, &n,
		`SELECT COUNT(*) FROM booking_participants WHERE booking_id = $1 AND is_host`, bookingID)
	return n, err
}

func (r *repository) Delete(ctx context.Context, id int) error {
	return r.table.Delete(ctx, id)
}

func translateAmountError(err error) error {
	switch {
	case db.IsCheckViolation(err, overpaidConstraint):
		return apperr.ErrOverpayment
	case db.IsCheckViolation(err, ""):
		return fmt.Errorf("%w: amounts must not be negative", apperr.ErrValidation)
	default:
		return fmt.Errorf("write participant: %w", err)
	}
}
