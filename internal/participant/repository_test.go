package participant

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/internal/apperr"
)

func setupRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { dbx.Close() })
	return NewRepository(dbx), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO booking_participants`).
		WithArgs(1, 10, dec("50"), dec("50"), PaymentSuccess, ParticipationRegistered, true).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "user_id", "amount_owed", "amount_paid", "payment_status",
			"participation_status", "is_host", "created_at", "updated_at",
		}).AddRow(3, 1, 10, "50.00", "50.00", "success", "registered", true, now, now))

	p, err := repo.Create(context.Background(), &Participant{
		BookingID: 1, UserID: 10, AmountOwed: dec("50"), AmountPaid: dec("50"),
		PaymentStatus: PaymentSuccess, ParticipationStatus: ParticipationRegistered, IsHost: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.True(t, p.AmountPaid.Equal(dec("50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_Constraints(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"duplicate", &pq.Error{Code: "23505", Constraint: uniqueConstraint}, apperr.ErrDuplicateParticipant},
		{"missing booking", &pq.Error{Code: "23503"}, apperr.ErrNotFound},
		{"paid above owed", &pq.Error{Code: "23514", Constraint: overpaidConstraint}, apperr.ErrOverpayment},
		{"negative amount", &pq.Error{Code: "23514", Constraint: "booking_participants_amount_owed_check"}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupRepo(t)
			mock.ExpectQuery(`INSERT INTO booking_participants`).WillReturnError(tt.dbErr)

			_, err := repo.Create(context.Background(), &Participant{BookingID: 1, UserID: 2})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Stats(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE payment_status = 'success') AS fully_paid_count`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total_owed", "total_paid", "participant_count", "fully_paid_count"}).
			AddRow("100.00", "70.00", 2, 1))

	stats, err := repo.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stats.TotalOwed.Equal(dec("100")))
	assert.True(t, stats.TotalPaid.Equal(dec("70")))
	assert.Equal(t, 2, stats.ParticipantCount)
	assert.Equal(t, 1, stats.FullyPaidCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_IsHost(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT EXISTS\(.*AND is_host`).
		WithArgs(1, 10).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsHost(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateParticipation_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`UPDATE booking_participants SET participation_status`).
		WithArgs(ParticipationAttended, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.UpdateParticipation(context.Background(), 4, ParticipationAttended)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
