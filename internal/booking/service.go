package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtside/internal/apperr"
	"courtside/internal/db"
	"courtside/internal/events"
	"courtside/internal/logger"
	"courtside/internal/metrics"
)

// CourtLookup tells the lifecycle whether a court can take bookings.
type CourtLookup interface {
	CourtExists(ctx context.Context, id int) (bool, error)
}

type Service interface {
	IsAvailable(ctx context.Context, courtID int, start, end time.Time, excludeID int) (bool, error)
	Create(ctx context.Context, in CreateInput) (*Booking, error)
	Update(ctx context.Context, id int, p Patch) (*Booking, error)
	Confirm(ctx context.Context, id int) (*Booking, error)
	Cancel(ctx context.Context, id int) (*Booking, error)
	Complete(ctx context.Context, id int) (*Booking, error)
	Get(ctx context.Context, id int) (*Booking, error)
	ListByCourt(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID int) ([]Booking, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo      Repository
	courts    CourtLookup
	tx        db.Transactor
	publisher events.Publisher
}

func NewService(repo Repository, courts CourtLookup, tx db.Transactor, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		repo:      repo,
		courts:    courts,
		tx:        tx,
		publisher: publisher,
	}
}

func (s *service) IsAvailable(ctx context.Context, courtID int, start, end time.Time, excludeID int) (bool, error) {
	if !start.Before(end) {
		return false, fmt.Errorf("%w: start time must be before end time", apperr.ErrValidation)
	}

	existing, err := s.repo.ActiveInWindow(ctx, courtID, start, end)
	if err != nil {
		return false, err
	}
	return FindConflict(existing, start, end, excludeID) == nil, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	end, minutes, err := ResolveTimes(in.StartTime, in.EndTime, in.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if in.BookedBy <= 0 {
		return nil, fmt.Errorf("%w: booked_by is required", apperr.ErrValidation)
	}
	if in.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total amount cannot be negative", apperr.ErrValidation)
	}
	if err := s.requireCourt(ctx, in.CourtID); err != nil {
		return nil, err
	}

	candidate := &Booking{
		CourtID:         in.CourtID,
		StartTime:       in.StartTime,
		EndTime:         end,
		DurationMinutes: minutes,
		Status:          StatusPendingPayment,
		TotalAmount:     in.TotalAmount,
		Currency:        normalizeCurrency(in.Currency),
		BookedBy:        in.BookedBy,
		Purpose:         in.Purpose,
		Notes:           in.Notes,
	}
	if candidate.Purpose == "" {
		candidate.Purpose = DefaultPurpose
	}

	var created *Booking
	err = s.tx.WithinSerializableTx(ctx, func(ctx context.Context) error {
		if err := s.checkSlot(ctx, candidate.CourtID, candidate.StartTime, candidate.EndTime, 0); err != nil {
			return err
		}
		created, err = s.repo.Create(ctx, candidate)
		return err
	})
	if err != nil {
		s.observeConflict(err)
		return nil, err
	}

	metrics.RecordBookingTransition(string(created.Status))
	logger.Info("booking created",
		"booking_id", created.ID,
		"court_id", created.CourtID,
		"start", created.StartTime,
		"end", created.EndTime,
	)
	s.publish(ctx, events.BookingCreated, created)
	return created, nil
}

func (s *service) Update(ctx context.Context, id int, p Patch) (*Booking, error) {
	if p.TotalAmount != nil && p.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total amount cannot be negative", apperr.ErrValidation)
	}

	var updated *Booking
	err := s.tx.WithinSerializableTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: booking %d is %s and can no longer be edited",
				apperr.ErrInvalidTransition, id, current.Status)
		}

		next := *current
		if p.CourtID != nil {
			next.CourtID = *p.CourtID
		}
		if err := applyTimes(&next, p); err != nil {
			return err
		}
		if p.TotalAmount != nil {
			next.TotalAmount = *p.TotalAmount
		}
		if p.Currency != nil {
			next.Currency = normalizeCurrency(*p.Currency)
		}
		if p.Purpose != nil {
			next.Purpose = *p.Purpose
		}
		if p.Notes != nil {
			next.Notes = *p.Notes
		}

		if next.CourtID != current.CourtID {
			if err := s.requireCourt(ctx, next.CourtID); err != nil {
				return err
			}
		}
		if p.touchesSlot() {
			if err := s.checkSlot(ctx, next.CourtID, next.StartTime, next.EndTime, id); err != nil {
				return err
			}
		}

		updated, err = s.repo.Update(ctx, &next, current.Status)
		return err
	})
	if err != nil {
		s.observeConflict(err)
		return nil, err
	}

	s.publish(ctx, events.BookingUpdated, updated)
	return updated, nil
}

func (s *service) Confirm(ctx context.Context, id int) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, events.BookingConfirmed)
}

// Cancel rejects an already cancelled booking rather than ignoring it.
func (s *service) Cancel(ctx context.Context, id int) (*Booking, error) {
	return s.transition(ctx, id, StatusCancelled, events.BookingCancelled)
}

func (s *service) Complete(ctx context.Context, id int) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, events.BookingCompleted)
}

func (s *service) transition(ctx context.Context, id int, to Status, eventKey string) (*Booking, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: booking %d is %s, cannot become %s",
			apperr.ErrInvalidTransition, id, current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(to))
	logger.Info("booking status changed", "booking_id", id, "from", current.Status, "to", to)
	s.publish(ctx, eventKey, updated)
	return updated, nil
}

func (s *service) Get(ctx context.Context, id int) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListByCourt(ctx context.Context, courtID int, from, to time.Time) ([]Booking, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", apperr.ErrValidation)
	}
	return s.repo.ListByCourt(ctx, courtID, from, to)
}

func (s *service) ListByUser(ctx context.Context, userID int) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("booking deleted", "booking_id", id)
	return nil
}

// checkSlot must run inside the write transaction so the candidate rows stay
// locked until the insert or update commits.
func (s *service) checkSlot(ctx context.Context, courtID int, start, end time.Time, excludeID int) error {
	existing, err := s.repo.ActiveInWindow(ctx, courtID, start, end)
	if err != nil {
		return err
	}
	if c := FindConflict(existing, start, end, excludeID); c != nil {
		return fmt.Errorf("%w: court %d is booked %s-%s (booking %d)",
			apperr.ErrCourtUnavailable, courtID,
			c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339), c.ID)
	}
	return nil
}

func (s *service) requireCourt(ctx context.Context, courtID int) error {
	if courtID <= 0 {
		return fmt.Errorf("%w: court_id is required", apperr.ErrValidation)
	}
	ok, err := s.courts.CourtExists(ctx, courtID)
	if err != nil {
		return fmt.Errorf("lookup court: %w", err)
	}
	if !ok {
		return ErrCourtNotFound
	}
	return nil
}

func (s *service) observeConflict(err error) {
	if errors.Is(err, apperr.ErrCourtUnavailable) {
		metrics.RecordBookingConflict()
		logger.Debug("booking rejected", "error", err)
	}
}

func (s *service) publish(ctx context.Context, key string, b *Booking) {
	if err := s.publisher.Publish(ctx, key, b); err != nil {
		logger.Warn("failed to publish booking event", "key", key, "booking_id", b.ID, "error", err)
	}
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
