package participant

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/internal/apperr"
	"courtside/internal/booking"
)

// memRepository keeps participants in memory with the same uniqueness and
// amount rules the table enforces.
type memRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]Participant
}

func newMemRepository() *memRepository {
	return &memRepository{rows: map[int]Participant{}}
}

func (m *memRepository) Create(_ context.Context, p *Participant) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.BookingID == p.BookingID && row.UserID == p.UserID {
			return nil, apperr.ErrDuplicateParticipant
		}
	}
	if p.AmountPaid.GreaterThan(p.AmountOwed) {
		return nil, apperr.ErrOverpayment
	}
	m.nextID++
	row := *p
	row.ID = m.nextID
	m.rows[row.ID] = row
	return &row, nil
}

func (m *memRepository) Get(_ context.Context, id int) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return &row, nil
}

func (m *memRepository) GetForUpdate(ctx context.Context, id int) (*Participant, error) {
	return m.Get(ctx, id)
}

func (m *memRepository) UpdatePayment(_ context.Context, p *Participant) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return nil, ErrParticipantNotFound
	}
	if p.AmountPaid.GreaterThan(p.AmountOwed) {
		return nil, apperr.ErrOverpayment
	}
	m.rows[p.ID] = *p
	row := *p
	return &row, nil
}

func (m *memRepository) UpdateParticipation(_ context.Context, id int, status ParticipationStatus) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	row.ParticipationStatus = status
	m.rows[id] = row
	return &row, nil
}

func (m *memRepository) ListByBooking(_ context.Context, bookingID int) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Participant{}
	for _, row := range m.rows {
		if row.BookingID == bookingID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepository) Stats(ctx context.Context, bookingID int) (*PaymentStats, error) {
	rows, _ := m.ListByBooking(ctx, bookingID)
	stats := &PaymentStats{TotalOwed: decimal.Zero, TotalPaid: decimal.Zero}
	for _, row := range rows {
		stats.TotalOwed = stats.TotalOwed.Add(row.AmountOwed)
		stats.TotalPaid = stats.TotalPaid.Add(row.AmountPaid)
		stats.ParticipantCount++
		if row.PaymentStatus == PaymentSuccess {
			stats.FullyPaidCount++
		}
	}
	return stats, nil
}

func (m *memRepository) IsHost(ctx context.Context, bookingID, userID int) (bool, error) {
	rows, _ := m.ListByBooking(ctx, bookingID)
	for _, row := range rows {
		if row.UserID == userID && row.IsHost {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepository) IsParticipant(ctx context.Context, bookingID, userID int) (bool, error) {
	rows, _ := m.ListByBooking(ctx, bookingID)
	for _, row := range rows {
		if row.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepository) CountHosts(ctx context.Context, bookingID int) (int, error) {
	rows, _ := m.ListByBooking(ctx, bookingID)
	n := 0
	for _, row := range rows {
		if row.IsHost {
			n++
		}
	}
	return n, nil
}

func (m *memRepository) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrParticipantNotFound
	}
	delete(m.rows, id)
	return nil
}

type stubBookings map[int]*booking.Booking

func (s stubBookings) Get(_ context.Context, id int) (*booking.Booking, error) {
	b, ok := s[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (Service, *memRepository) {
	repo := newMemRepository()
	bookings := stubBookings{1: {ID: 1, BookedBy: 7, Status: booking.StatusConfirmed}}
	return NewService(repo, bookings, passthroughTx{}), repo
}

func TestAddParticipant_FullyPaid(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddParticipant(ctx, AddInput{
		BookingID:  1,
		UserID:     10,
		AmountOwed: dec("50.00"),
		AmountPaid: dec("50.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, PaymentSuccess, p.PaymentStatus)
	assert.Equal(t, ParticipationRegistered, p.ParticipationStatus)

	stats, err := svc.GetPaymentStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ParticipantCount)
	assert.Equal(t, 1, stats.FullyPaidCount)
	assert.True(t, stats.TotalPaid.Equal(dec("50")))
}

func TestAddParticipant_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		in      AddInput
		wantErr error
	}{
		{"overpayment", AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("20"), AmountPaid: dec("25")}, apperr.ErrOverpayment},
		{"negative owed", AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("-1"), AmountPaid: dec("0")}, apperr.ErrValidation},
		{"unknown booking", AddInput{BookingID: 9, UserID: 10, AmountOwed: dec("20")}, apperr.ErrNotFound},
		{"bad status", AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("20"), PaymentStatus: "paid"}, apperr.ErrValidation},
		{"missing user", AddInput{BookingID: 1, AmountOwed: dec("20")}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			_, err := svc.AddParticipant(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestAddParticipant_Duplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("10")})
	require.NoError(t, err)

	_, err = svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("10")})
	assert.ErrorIs(t, err, apperr.ErrDuplicateParticipant)
}

func TestAddParticipant_SecondHostIsAllowed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("10"), IsHost: true})
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 11, AmountOwed: dec("10"), IsHost: true})
	require.NoError(t, err)

	isHost, err := svc.IsUserHost(ctx, 1, 11)
	require.NoError(t, err)
	assert.True(t, isHost)

	isParticipant, err := svc.IsUserParticipant(ctx, 1, 12)
	require.NoError(t, err)
	assert.False(t, isParticipant)
}

func TestUpdatePaymentStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("40")})
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, p.PaymentStatus)

	t.Run("amount derives status", func(t *testing.T) {
		paid := dec("15")
		updated, err := svc.UpdatePaymentStatus(ctx, p.ID, "", &paid)
		require.NoError(t, err)
		assert.Equal(t, PaymentPartial, updated.PaymentStatus)
		assert.True(t, updated.AmountPaid.Equal(paid))
	})

	t.Run("overpay rejected and row untouched", func(t *testing.T) {
		paid := dec("40.01")
		_, err := svc.UpdatePaymentStatus(ctx, p.ID, PaymentSuccess, &paid)
		assert.ErrorIs(t, err, apperr.ErrOverpayment)

		current, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, current.AmountPaid.Equal(dec("15")))
	})

	t.Run("explicit status only", func(t *testing.T) {
		updated, err := svc.UpdatePaymentStatus(ctx, p.ID, PaymentFailed, nil)
		require.NoError(t, err)
		assert.Equal(t, PaymentFailed, updated.PaymentStatus)
	})

	t.Run("nothing to change", func(t *testing.T) {
		_, err := svc.UpdatePaymentStatus(ctx, p.ID, "", nil)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown participant", func(t *testing.T) {
		_, err := svc.UpdatePaymentStatus(ctx, 999, PaymentFailed, nil)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestUpdateParticipationStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("10")})
	require.NoError(t, err)

	updated, err := svc.UpdateParticipationStatus(ctx, p.ID, ParticipationNoShow)
	require.NoError(t, err)
	assert.Equal(t, ParticipationNoShow, updated.ParticipationStatus)

	_, err = svc.UpdateParticipationStatus(ctx, p.ID, "late")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRefund(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("50"), AmountPaid: dec("50")})
	require.NoError(t, err)

	refunded, err := svc.Refund(ctx, p.ID, dec("20"))
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, refunded.PaymentStatus)
	assert.True(t, refunded.AmountOwed.Equal(dec("30")))
	assert.True(t, refunded.AmountPaid.Equal(dec("30")))
	assert.False(t, refunded.AmountPaid.GreaterThan(refunded.AmountOwed))

	_, err = svc.Refund(ctx, p.ID, dec("31"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Refund(ctx, p.ID, dec("0"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRemove(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 10, AmountOwed: dec("10")})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, p.ID))
	assert.ErrorIs(t, svc.Remove(ctx, p.ID), apperr.ErrNotFound)

	rows, err := svc.ListByBooking(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCanManage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 20, IsHost: true})
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, AddInput{BookingID: 1, UserID: 30})
	require.NoError(t, err)

	for user, want := range map[int]bool{7: true, 20: true, 30: false, 99: false} {
		ok, err := svc.CanManage(ctx, 1, user)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "user %d", user)
	}

	_, err = svc.CanManage(ctx, 404, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
