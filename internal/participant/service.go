package participant

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"courtside/internal/apperr"
	"courtside/internal/booking"
	"courtside/internal/db"
	"courtside/internal/logger"
	"courtside/internal/metrics"
)

// BookingLookup resolves the booking a participant attaches to.
type BookingLookup interface {
	Get(ctx context.Context, id int) (*booking.Booking, error)
}

type Service interface {
	AddParticipant(ctx context.Context, in AddInput) (*Participant, error)
	UpdatePaymentStatus(ctx context.Context, id int, status PaymentStatus, amountPaid *decimal.Decimal) (*Participant, error)
	UpdateParticipationStatus(ctx context.Context, id int, status ParticipationStatus) (*Participant, error)
	Refund(ctx context.Context, id int, amount decimal.Decimal) (*Participant, error)
	GetPaymentStats(ctx context.Context, bookingID int) (*PaymentStats, error)
	IsUserHost(ctx context.Context, bookingID, userID int) (bool, error)
	IsUserParticipant(ctx context.Context, bookingID, userID int) (bool, error)
	ListByBooking(ctx context.Context, bookingID int) ([]Participant, error)
	Get(ctx context.Context, id int) (*Participant, error)
	Remove(ctx context.Context, id int) error
	CanManage(ctx context.Context, bookingID, userID int) (bool, error)
}

type service struct {
	repo     Repository
	bookings BookingLookup
	tx       db.Transactor
}

func NewService(repo Repository, bookings BookingLookup, tx db.Transactor) Service {
	return &service{repo: repo, bookings: bookings, tx: tx}
}

func (s *service) AddParticipant(ctx context.Context, in AddInput) (*Participant, error) {
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", apperr.ErrValidation)
	}
	if err := validateAmounts(in.AmountOwed, in.AmountPaid); err != nil {
		return nil, err
	}

	status := in.PaymentStatus
	if status == "" {
		status = DerivePaymentStatus(in.AmountOwed, in.AmountPaid)
	} else if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", apperr.ErrValidation, status)
	}

	var created *Participant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.bookings.Get(ctx, in.BookingID); err != nil {
			return err
		}

		if in.IsHost {
			hosts, err := s.repo.CountHosts(ctx, in.BookingID)
			if err != nil {
				return err
			}
			if hosts > 0 {
				logger.Warn("booking already has a host",
					"booking_id", in.BookingID,
					"user_id", in.UserID,
					"hosts", hosts,
				)
			}
		}

		var err error
		created, err = s.repo.Create(ctx, &Participant{
			BookingID:           in.BookingID,
			UserID:              in.UserID,
			AmountOwed:          in.AmountOwed,
			AmountPaid:          in.AmountPaid,
			PaymentStatus:       status,
			ParticipationStatus: ParticipationRegistered,
			IsHost:              in.IsHost,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordParticipantPayment(string(created.PaymentStatus))
	return created, nil
}

// UpdatePaymentStatus sets the payment status and, when amountPaid is given,
// the paid amount. An empty status with a new amount re-derives the status.
func (s *service) UpdatePaymentStatus(ctx context.Context, id int, status PaymentStatus, amountPaid *decimal.Decimal) (*Participant, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", apperr.ErrValidation, status)
	}
	if status == "" && amountPaid == nil {
		return nil, fmt.Errorf("%w: payment status or amount paid is required", apperr.ErrValidation)
	}

	var updated *Participant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		next := *current
		if amountPaid != nil {
			if err := validateAmounts(current.AmountOwed, *amountPaid); err != nil {
				return err
			}
			next.AmountPaid = *amountPaid
		}
		next.PaymentStatus = status
		if status == "" {
			next.PaymentStatus = DerivePaymentStatus(next.AmountOwed, next.AmountPaid)
		}

		updated, err = s.repo.UpdatePayment(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordParticipantPayment(string(updated.PaymentStatus))
	return updated, nil
}

func (s *service) UpdateParticipationStatus(ctx context.Context, id int, status ParticipationStatus) (*Participant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown participation status %q", apperr.ErrValidation, status)
	}
	return s.repo.UpdateParticipation(ctx, id, status)
}

// Refund returns amount to the participant by lowering both what they owe
// and what they paid, so the paid amount never exceeds the owed one.
func (s *service) Refund(ctx context.Context, id int, amount decimal.Decimal) (*Participant, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", apperr.ErrValidation)
	}

	var updated *Participant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if amount.GreaterThan(current.AmountPaid) {
			return fmt.Errorf("%w: refund %s exceeds paid amount %s",
				apperr.ErrValidation, amount.StringFixed(2), current.AmountPaid.StringFixed(2))
		}

		next := *current
		next.AmountOwed = current.AmountOwed.Sub(amount)
		next.AmountPaid = current.AmountPaid.Sub(amount)
		next.PaymentStatus = PaymentRefunded

		updated, err = s.repo.UpdatePayment(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordParticipantPayment(string(PaymentRefunded))
	logger.Info("participant refunded",
		"participant_id", id,
		"booking_id", updated.BookingID,
		"amount", amount.StringFixed(2),
	)
	return updated, nil
}

func (s *service) GetPaymentStats(ctx context.Context, bookingID int) (*PaymentStats, error) {
	return s.repo.Stats(ctx, bookingID)
}

func (s *service) IsUserHost(ctx context.Context, bookingID, userID int) (bool, error) {
	return s.repo.IsHost(ctx, bookingID, userID)
}

func (s *service) IsUserParticipant(ctx context.Context, bookingID, userID int) (bool, error) {
	return s.repo.IsParticipant(ctx, bookingID, userID)
}

func (s *service) ListByBooking(ctx context.Context, bookingID int) ([]Participant, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *service) Get(ctx context.Context, id int) (*Participant, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) Remove(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// CanManage reports whether userID may change the booking's participants:
// the user who booked it or one of its hosts.
func (s *service) CanManage(ctx context.Context, bookingID, userID int) (bool, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if b.BookedBy == userID {
		return true, nil
	}
	return s.repo.IsHost(ctx, bookingID, userID)
}

func validateAmounts(owed, paid decimal.Decimal) error {
	if owed.IsNegative() || paid.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", apperr.ErrValidation)
	}
	if paid.GreaterThan(owed) {
		return fmt.Errorf("%w: paid %s, owed %s", apperr.ErrOverpayment, paid.StringFixed(2), owed.StringFixed(2))
	}
	return nil
}
