package booking

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var columns = []string{
	"id", "court_id", "start_time", "end_time", "duration_minutes", "status",
	"total_amount", "currency", "booked_by", "purpose", "notes", "created_at", "updated_at",
}

func errExclusion() error {
	return &pq.Error{Code: "23P01", Constraint: overlapConstraint}
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { dbx.Close() })
	return dbx, mock
}

func bookingRow(id int, start, end time.Time, status Status) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, 1, start, end, int(end.Sub(start).Minutes()), string(status),
		"40.00", "EUR", 7, "match", "", now, now,
	}
}

func TestRepository_Create(t *testing.T) {
	dbx, mock := setupMockDB(t)
	repo := NewRepository(dbx)

	start, end := at("10:00"), at("11:30")
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(1, start, end, 90, StatusPendingPayment, decimal.RequireFromString("40.00"), "EUR", 7, "match", "").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(bookingRow(1, start, end, StatusPendingPayment)...))

	b, err := repo.Create(context.Background(), &Booking{
		CourtID: 1, StartTime: start, EndTime: end, DurationMinutes: 90,
		Status: StatusPendingPayment, TotalAmount: decimal.RequireFromString("40.00"),
		Currency: "EUR", BookedBy: 7, Purpose: "match",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, StatusPendingPayment, b.Status)
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(40)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_TranslatesConstraints(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"overlap exclusion", errExclusion(), apperr.ErrCourtUnavailable},
		{"unknown court", &pq.Error{Code: "23503"}, apperr.ErrNotFound},
		{"check constraint", &pq.Error{Code: "23514"}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbx, mock := setupMockDB(t)
			repo := NewRepository(dbx)

			mock.ExpectQuery(`INSERT INTO bookings`).WillReturnError(tt.dbErr)

			_, err := repo.Create(context.Background(), &Booking{CourtID: 1})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ActiveInWindow_LocksInsideTx(t *testing.T) {
	dbx, mock := setupMockDB(t)
	repo := NewRepository(dbx)
	tm := db.NewTxManager(dbx, 0)

	from, to := at("10:00"), at("12:00")

	mock.ExpectQuery(`status <> 'cancelled'.*ORDER BY start_time ASC$`).
		WithArgs(1, from, to).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.ActiveInWindow(context.Background(), 1, from, to)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY start_time ASC FOR UPDATE`).
		WithArgs(1, from, to).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(bookingRow(3, at("10:30"), at("11:30"), StatusConfirmed)...))
	mock.ExpectCommit()

	err = tm.WithinSerializableTx(context.Background(), func(ctx context.Context) error {
		rows, err := repo.ActiveInWindow(ctx, 1, from, to)
		if err != nil {
			return err
		}
		assert.Len(t, rows, 1)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	dbx, mock := setupMockDB(t)
	repo := NewRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $2 AND status = $3`)).
		WithArgs(StatusConfirmed, 5, StatusPendingPayment).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(bookingRow(5, at("10:00"), at("11:00"), StatusConfirmed)...))

	b, err := repo.UpdateStatus(context.Background(), 5, StatusPendingPayment, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $2 AND status = $3`)).
		WithArgs(StatusConfirmed, 5, StatusPendingPayment).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = repo.UpdateStatus(context.Background(), 5, StatusPendingPayment, StatusConfirmed)
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByCourt(t *testing.T) {
	dbx, mock := setupMockDB(t)
	repo := NewRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE court_id = $1 AND end_time > $2 AND start_time < $3 ORDER BY start_time ASC`)).
		WithArgs(2, at("08:00"), at("20:00")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(bookingRow(1, at("09:00"), at("10:00"), StatusConfirmed)...).
			AddRow(bookingRow(2, at("10:00"), at("11:00"), StatusCancelled)...))

	rows, err := repo.ListByCourt(context.Background(), 2, at("08:00"), at("20:00"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete_NotFound(t *testing.T) {
	dbx, mock := setupMockDB(t)
	repo := NewRepository(dbx)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bookings WHERE id = $1`)).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
