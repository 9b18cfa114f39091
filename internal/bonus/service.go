package bonus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"courtside/internal/apperr"
	"courtside/internal/logger"
	"courtside/internal/metrics"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
	DefaultMaxRetries   = 5
)

type Service interface {
	GetCurrentBalance(ctx context.Context, userID int) (int64, error)
	RecordTransaction(ctx context.Context, in RecordInput) (*Transaction, error)
	GetBalanceHistory(ctx context.Context, userID, limit int) ([]Transaction, error)
	GetUserBonusSummary(ctx context.Context, userID int) (*Summary, error)
	FindExpiringBonuses(ctx context.Context, daysAhead int) ([]Transaction, error)
	FindExpiredBonuses(ctx context.Context) ([]Transaction, error)
	CorrectDetails(ctx context.Context, id int, description string, expiresAt *time.Time) (*Transaction, error)
	VerifyUserLedger(ctx context.Context, userID int) (*VerifyReport, error)
}

type service struct {
	repo       Repository
	maxRetries int
	now        func() time.Time
}

// NewService builds the ledger service. A write that loses the version race
// is re-read and retried up to maxRetries times.
func NewService(repo Repository, maxRetries int) Service {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &service{repo: repo, maxRetries: maxRetries, now: time.Now}
}

func (s *service) GetCurrentBalance(ctx context.Context, userID int) (int64, error) {
	snap, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return 0, err
	}
	return snap.Balance, nil
}

func (s *service) RecordTransaction(ctx context.Context, in RecordInput) (*Transaction, error) {
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", apperr.ErrValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperr.ErrValidation, in.Type)
	}
	if in.PointsChange <= 0 {
		return nil, fmt.Errorf("%w: points change must be positive", apperr.ErrValidation)
	}

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		head, err := s.repo.Latest(ctx, in.UserID)
		if err != nil {
			return nil, err
		}

		if in.Type == TypeEarned && head.Balance > math.MaxInt64-in.PointsChange {
			return nil, fmt.Errorf("%w: earning %d points would overflow balance %d",
				apperr.ErrValidation, in.PointsChange, head.Balance)
		}

		balance := Apply(head.Balance, in.Type, in.PointsChange)
		if balance < 0 {
			metrics.RecordBonusInsufficient()
			return nil, fmt.Errorf("%w: balance %d, requested %d",
				apperr.ErrInsufficientBalance, head.Balance, in.PointsChange)
		}

		created, err := s.repo.Insert(ctx, &Transaction{
			UserID:              in.UserID,
			Version:             head.Version + 1,
			Type:                in.Type,
			PointsChange:        in.PointsChange,
			CurrentBalanceAfter: balance,
			Description:         strings.TrimSpace(in.Description),
			RelatedOrderID:      in.RelatedOrderID,
			RelatedBookingID:    in.RelatedBookingID,
			ExpiresAt:           in.ExpiresAt,
		})
		if errors.Is(err, ErrVersionConflict) {
			metrics.RecordBonusVersionConflict()
			logger.Debug("bonus ledger version taken, retrying",
				"user_id", in.UserID,
				"version", head.Version+1,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.RecordBonusTransaction(string(created.Type))
		return created, nil
	}

	logger.Warn("bonus ledger write gave up", "user_id", in.UserID, "attempts", s.maxRetries+1)
	return nil, fmt.Errorf("%w: ledger for user %d kept changing after %d attempts",
		apperr.ErrConflict, in.UserID, s.maxRetries+1)
}

func (s *service) GetBalanceHistory(ctx context.Context, userID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.History(ctx, userID, limit)
}

func (s *service) GetUserBonusSummary(ctx context.Context, userID int) (*Summary, error) {
	return s.repo.Summary(ctx, userID)
}

// FindExpiringBonuses reports earned points expiring within daysAhead days.
// Expiry is informational; balances are never reduced here.
func (s *service) FindExpiringBonuses(ctx context.Context, daysAhead int) ([]Transaction, error) {
	if daysAhead <= 0 {
		return nil, fmt.Errorf("%w: days ahead must be positive", apperr.ErrValidation)
	}
	now := s.now()
	return s.repo.FindExpiring(ctx, now, now.AddDate(0, 0, daysAhead))
}

func (s *service) FindExpiredBonuses(ctx context.Context) ([]Transaction, error) {
	return s.repo.FindExpired(ctx, s.now())
}

// CorrectDetails is the only mutation allowed on a written row. Points and
// balances stay as recorded.
func (s *service) CorrectDetails(ctx context.Context, id int, description string, expiresAt *time.Time) (*Transaction, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Type == TypeSpent && expiresAt != nil {
		return nil, fmt.Errorf("%w: only earned points can expire", apperr.ErrValidation)
	}
	return s.repo.UpdateDetails(ctx, id, strings.TrimSpace(description), expiresAt)
}

func (s *service) VerifyUserLedger(ctx context.Context, userID int) (*VerifyReport, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := Replay(userID, rows)
	if !report.Consistent {
		logger.Error("bonus ledger inconsistent",
			"user_id", userID,
			"transaction_id", report.Break.TransactionID,
			"reason", report.Break.Reason,
		)
	}
	return report, nil
}
