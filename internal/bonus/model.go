package bonus

import "time"

type TxType string

const (
	TypeEarned TxType = "earned"
	TypeSpent  TxType = "spent"
)

func (t TxType) Valid() bool {
	return t == TypeEarned || t == TypeSpent
}

// Transaction is one immutable ledger row. Version numbers a user's rows
// 1, 2, 3, ... and CurrentBalanceAfter is the balance once this row applied.
type Transaction struct {
	ID                  int        `db:"id" json:"id"`
	UserID              int        `db:"user_id" json:"user_id"`
	Version             int        `db:"version" json:"version"`
	Type                TxType     `db:"type" json:"type"`
	PointsChange        int64      `db:"points_change" json:"points_change"`
	CurrentBalanceAfter int64      `db:"current_balance_after" json:"current_balance_after"`
	Description         string     `db:"description" json:"description"`
	RelatedOrderID      *int       `db:"related_order_id" json:"related_order_id,omitempty"`
	RelatedBookingID    *int       `db:"related_booking_id" json:"related_booking_id,omitempty"`
	ExpiresAt           *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Snapshot is the head of a user's ledger. The zero value is an empty ledger.
type Snapshot struct {
	Balance int64 `db:"current_balance_after"`
	Version int   `db:"version"`
}

type Summary struct {
	UserID           int   `db:"user_id" json:"user_id"`
	TotalEarned      int64 `db:"total_earned" json:"total_earned"`
	TotalSpent       int64 `db:"total_spent" json:"total_spent"`
	CurrentBalance   int64 `db:"current_balance" json:"current_balance"`
	TransactionCount int   `db:"transaction_count" json:"transaction_count"`
}

type RecordInput struct {
	UserID           int
	Type             TxType
	PointsChange     int64
	Description      string
	RelatedOrderID   *int
	RelatedBookingID *int
	ExpiresAt        *time.Time
}

// Apply returns the balance after a row of type t moves points.
func Apply(balance int64, t TxType, points int64) int64 {
	if t == TypeSpent {
		return balance - points
	}
	return balance + points
}

// LedgerBreak points at the first row whose stored values disagree with a
// replay of the rows before it.
type LedgerBreak struct {
	TransactionID   int    `json:"transaction_id"`
	Version         int    `json:"version"`
	ExpectedVersion int    `json:"expected_version"`
	ExpectedBalance int64  `json:"expected_balance"`
	StoredBalance   int64  `json:"stored_balance"`
	Reason          string `json:"reason"`
}

type VerifyReport struct {
	UserID       int          `json:"user_id"`
	Transactions int          `json:"transactions"`
	Balance      int64        `json:"balance"`
	Consistent   bool         `json:"consistent"`
	Break        *LedgerBreak `json:"break,omitempty"`
}

// Replay walks rows in version order and checks every stored balance.
func Replay(userID int, rows []Transaction) *VerifyReport {
	report := &VerifyReport{UserID: userID, Transactions: len(rows), Consistent: true}

	var balance int64
	for i, row := range rows {
		expected := Apply(balance, row.Type, row.PointsChange)
		brk := &LedgerBreak{
			TransactionID:   row.ID,
			Version:         row.Version,
			ExpectedVersion: i + 1,
			ExpectedBalance: expected,
			StoredBalance:   row.CurrentBalanceAfter,
		}
		switch {
		case row.Version != i+1:
			brk.Reason = "version gap"
		case expected < 0:
			brk.Reason = "negative balance"
		case expected != row.CurrentBalanceAfter:
			brk.Reason = "stored balance mismatch"
		default:
			balance = expected
			continue
		}
		report.Consistent = false
		report.Break = brk
		break
	}

	report.Balance = balance
	return report
}

type RecordTransactionRequest struct {
	UserID           int        `json:"user_id" binding:"required,gt=0"`
	Type             TxType     `json:"type" binding:"required,oneof=earned spent"`
	PointsChange     int64      `json:"points_change" binding:"required,gt=0"`
	Description      string     `json:"description" binding:"max=255"`
	RelatedOrderID   *int       `json:"related_order_id,omitempty" binding:"omitempty,gt=0"`
	RelatedBookingID *int       `json:"related_booking_id,omitempty" binding:"omitempty,gt=0"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type CorrectDetailsRequest struct {
	Description string     `json:"description" binding:"max=255"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type BalanceResponse struct {
	UserID  int   `json:"user_id"`
	Balance int64 `json:"balance"`
}
