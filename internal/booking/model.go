package booking

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"courtside/internal/apperr"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// MinDurationMinutes is the shortest bookable slot.
const MinDurationMinutes = 15

// MaxDurationMinutes caps a single booking at one day.
const MaxDurationMinutes = 24 * 60

const (
	DefaultCurrency = "EUR"
	DefaultPurpose  = "match"
)

var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions or edits.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active bookings hold their court slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              int             `db:"id" json:"id"`
	CourtID         int             `db:"court_id" json:"court_id"`
	StartTime       time.Time       `db:"start_time" json:"start_time"`
	EndTime         time.Time       `db:"end_time" json:"end_time"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Status          Status          `db:"status" json:"status"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency        string          `db:"currency" json:"currency"`
	BookedBy        int             `db:"booked_by" json:"booked_by"`
	Purpose         string          `db:"purpose" json:"purpose"`
	Notes           string          `db:"notes" json:"notes"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type CreateInput struct {
	CourtID         int
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	TotalAmount     decimal.Decimal
	Currency        string
	BookedBy        int
	Purpose         string
	Notes           string
}

// Patch holds the fields an update may change. Nil means unchanged.
type Patch struct {
	CourtID         *int
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMinutes *int
	TotalAmount     *decimal.Decimal
	Currency        *string
	Purpose         *string
	Notes           *string
}

func (p Patch) touchesSlot() bool {
	return p.CourtID != nil || p.StartTime != nil || p.EndTime != nil || p.DurationMinutes != nil
}

// minutesBetween rounds end-start to whole minutes.
func minutesBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// ResolveTimes derives the missing one of end and duration from the other.
// When both are supplied they must agree.
func ResolveTimes(start time.Time, end *time.Time, duration *int) (time.Time, int, error) {
	if start.IsZero() {
		return time.Time{}, 0, fmt.Errorf("%w: start time is required", apperr.ErrValidation)
	}

	var (
		resolvedEnd time.Time
		minutes     int
	)
	switch {
	case end == nil && duration == nil:
		return time.Time{}, 0, fmt.Errorf("%w: either end time or duration is required", apperr.ErrValidation)
	case end != nil && duration != nil:
		resolvedEnd, minutes = *end, *duration
		if minutesBetween(start, resolvedEnd) != minutes {
			return time.Time{}, 0, fmt.Errorf("%w: end time and duration disagree", apperr.ErrValidation)
		}
	case end != nil:
		resolvedEnd = *end
		minutes = minutesBetween(start, resolvedEnd)
	default:
		minutes = *duration
		resolvedEnd = start.Add(time.Duration(minutes) * time.Minute)
	}

	if err := validateInterval(start, resolvedEnd, minutes); err != nil {
		return time.Time{}, 0, err
	}
	return resolvedEnd, minutes, nil
}

func validateInterval(start, end time.Time, minutes int) error {
	if minutes > MaxDurationMinutes {
		return fmt.Errorf("%w: duration must be at most %d minutes", apperr.ErrValidation, MaxDurationMinutes)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start time must be before end time", apperr.ErrValidation)
	}
	if minutes < MinDurationMinutes || end.Sub(start) < MinDurationMinutes*time.Minute {
		return fmt.Errorf("%w: duration must be at least %d minutes", apperr.ErrValidation, MinDurationMinutes)
	}
	if minutesBetween(start, end) != minutes {
		return fmt.Errorf("%w: duration does not match start and end", apperr.ErrValidation)
	}
	return nil
}

// applyTimes re-derives start, end and duration after a patch so that
// duration always equals end minus start.
func applyTimes(b *Booking, p Patch) error {
	start, end, minutes := b.StartTime, b.EndTime, b.DurationMinutes

	switch {
	case p.StartTime != nil && p.EndTime != nil && p.DurationMinutes != nil:
		start, end, minutes = *p.StartTime, *p.EndTime, *p.DurationMinutes
		if minutesBetween(start, end) != minutes {
			return fmt.Errorf("%w: end time and duration disagree", apperr.ErrValidation)
		}
	case p.StartTime != nil && p.EndTime != nil:
		start, end = *p.StartTime, *p.EndTime
		minutes = minutesBetween(start, end)
	case p.StartTime != nil && p.DurationMinutes != nil:
		start, minutes = *p.StartTime, *p.DurationMinutes
		end = start.Add(time.Duration(minutes) * time.Minute)
	case p.EndTime != nil && p.DurationMinutes != nil:
		end, minutes = *p.EndTime, *p.DurationMinutes
		start = end.Add(-time.Duration(minutes) * time.Minute)
	case p.StartTime != nil:
		start = *p.StartTime
		end = start.Add(time.Duration(minutes) * time.Minute)
	case p.EndTime != nil:
		end = *p.EndTime
		minutes = minutesBetween(start, end)
	case p.DurationMinutes != nil:
		minutes = *p.DurationMinutes
		end = start.Add(time.Duration(minutes) * time.Minute)
	default:
		return nil
	}

	if err := validateInterval(start, end, minutes); err != nil {
		return err
	}
	b.StartTime, b.EndTime, b.DurationMinutes = start, end, minutes
	return nil
}

type CreateBookingRequest struct {
	CourtID         int             `json:"court_id" binding:"required,gt=0"`
	StartTime       time.Time       `json:"start_time" binding:"required"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty" binding:"omitempty,min=15,max=1440"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
	Purpose         string          `json:"purpose" binding:"omitempty,oneof=match training lesson tournament other"`
	Notes           string          `json:"notes" binding:"max=500"`
}

type UpdateBookingRequest struct {
	CourtID         *int             `json:"court_id,omitempty" binding:"omitempty,gt=0"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty" binding:"omitempty,min=15,max=1440"`
	TotalAmount     *decimal.Decimal `json:"total_amount,omitempty"`
	Currency        *string          `json:"currency,omitempty" binding:"omitempty,len=3"`
	Purpose         *string          `json:"purpose,omitempty" binding:"omitempty,oneof=match training lesson tournament other"`
	Notes           *string          `json:"notes,omitempty" binding:"omitempty,max=500"`
}

func (r UpdateBookingRequest) Patch() Patch {
	return Patch{
		CourtID:         r.CourtID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
		TotalAmount:     r.TotalAmount,
		Currency:        r.Currency,
		Purpose:         r.Purpose,
		Notes:           r.Notes,
	}
}

type AvailabilityResponse struct {
	CourtID   int       `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}
