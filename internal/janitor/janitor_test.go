package janitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	last  atomic.Value
	n     int
	err   error
}

func (s *countingSweeper) MarkOverdueSessions(_ context.Context, now time.Time) (int, error) {
	s.calls.Add(1)
	s.last.Store(now)
	return s.n, s.err
}

type memLocker struct {
	mu       sync.Mutex
	held     map[string]string
	released int
	seq      int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := string(rune('a' + l.seq))
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	l.released++
	return nil
}

func newTestJanitor(t *testing.T, sweeper Sweeper, locker Locker, interval time.Duration) *Janitor {
	t.Helper()
	j, err := New(sweeper, locker, interval)
	require.NoError(t, err)
	return j
}

func TestSweepOnce_TakesAndReleasesLock(t *testing.T) {
	sweeper := &countingSweeper{n: 2}
	locker := newMemLocker()
	j := newTestJanitor(t, sweeper, locker, time.Minute)
	fixed := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	n, err := j.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, fixed, sweeper.last.Load())
	assert.Equal(t, 1, locker.released)
	assert.Empty(t, locker.held)
}

func TestSweepOnce_SkipsWhenLockHeld(t *testing.T) {
	sweeper := &countingSweeper{}
	locker := newMemLocker()
	locker.held[OverdueLockKey] = "other-instance"
	j := newTestJanitor(t, sweeper, locker, time.Minute)

	_, err := j.SweepOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)
	assert.Zero(t, sweeper.calls.Load())
	assert.Equal(t, "other-instance", locker.held[OverdueLockKey])
}

func TestSweepOnce_ReleasesLockOnFailure(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	locker := newMemLocker()
	j := newTestJanitor(t, sweeper, locker, time.Minute)

	_, err := j.SweepOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, locker.held)
}

func TestSweepOnce_WithoutLocker(t *testing.T) {
	sweeper := &countingSweeper{n: 1}
	j := newTestJanitor(t, sweeper, nil, time.Minute)

	n, err := j.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStart_RunsOnSchedule(t *testing.T) {
	sweeper := &countingSweeper{}
	j := newTestJanitor(t, sweeper, newMemLocker(), 20*time.Millisecond)

	require.NoError(t, j.Start())
	defer j.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_Sweep(t *testing.T) {
	gin.SetMode(gin.TestMode)

	locker := newMemLocker()
	j := newTestJanitor(t, &countingSweeper{n: 3}, locker, time.Minute)
	r := gin.New()
	r.POST("/admin/sessions/sweep", NewHandler(j).Sweep)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SweepResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Cancelled)

	locker.held[OverdueLockKey] = "busy"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}
