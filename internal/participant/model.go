package participant

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentSuccess, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
	ParticipationAttended   ParticipationStatus = "attended"
	ParticipationNoShow     ParticipationStatus = "no_show"
	ParticipationCancelled  ParticipationStatus = "cancelled"
)

func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationRegistered, ParticipationAttended, ParticipationNoShow, ParticipationCancelled:
		return true
	}
	return false
}

type Participant struct {
	ID                  int                 `db:"id" json:"id"`
	BookingID           int                 `db:"booking_id" json:"booking_id"`
	UserID              int                 `db:"user_id" json:"user_id"`
	AmountOwed          decimal.Decimal     `db:"amount_owed" json:"amount_owed"`
	AmountPaid          decimal.Decimal     `db:"amount_paid" json:"amount_paid"`
	PaymentStatus       PaymentStatus       `db:"payment_status" json:"payment_status"`
	ParticipationStatus ParticipationStatus `db:"participation_status" json:"participation_status"`
	IsHost              bool                `db:"is_host" json:"is_host"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// PaymentStats aggregates the participant rows of one booking. A participant
// counts as fully paid when their payment status is success.
type PaymentStats struct {
	TotalOwed        decimal.Decimal `db:"total_owed" json:"total_owed"`
	TotalPaid        decimal.Decimal `db:"total_paid" json:"total_paid"`
	ParticipantCount int             `db:"participant_count" json:"participant_count"`
	FullyPaidCount   int             `db:"fully_paid_count" json:"fully_paid_count"`
}

// DerivePaymentStatus maps amounts to a status. Equal amounts win over zero,
// so a free slot is already settled.
func DerivePaymentStatus(owed, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.Equal(owed):
		return PaymentSuccess
	case paid.IsZero():
		return PaymentPending
	default:
		return PaymentPartial
	}
}

type AddInput struct {
	BookingID     int
	UserID        int
	AmountOwed    decimal.Decimal
	AmountPaid    decimal.Decimal
	IsHost        bool
	PaymentStatus PaymentStatus
}

type AddParticipantRequest struct {
	UserID        int             `json:"user_id" binding:"required,gt=0"`
	AmountOwed    decimal.Decimal `json:"amount_owed"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	IsHost        bool            `json:"is_host"`
	PaymentStatus PaymentStatus   `json:"payment_status" binding:"omitempty,oneof=pending partial success failed refunded"`
}

type UpdatePaymentRequest struct {
	PaymentStatus PaymentStatus    `json:"payment_status" binding:"omitempty,oneof=pending partial success failed refunded"`
	AmountPaid    *decimal.Decimal `json:"amount_paid,omitempty"`
}

type UpdateParticipationRequest struct {
	ParticipationStatus ParticipationStatus `json:"participation_status" binding:"required,oneof=registered attended no_show cancelled"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type MembershipResponse struct {
	BookingID     int  `json:"booking_id"`
	UserID        int  `json:"user_id"`
	IsParticipant bool `json:"is_participant"`
	IsHost        bool `json:"is_host"`
}
