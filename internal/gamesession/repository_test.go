package gamesession

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var sessionCols = []string{
	"id", "venue_id", "court_id", "start_time", "end_time", "game_type", "skill_level",
	"max_players", "current_players", "status", "created_by", "host_id", "match_score", "winner_ids",
	"booking_id", "created_at", "updated_at",
}

func sessionRow(id int, status Status, current int, winners string) []driver.Value {
	start := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	var w driver.Value
	if winners != "" {
		w = winners
	}
	return []driver.Value{
		id, 1, nil, start, start.Add(90 * time.Minute), DefaultGameType, DefaultSkillLevel,
		4, current, string(status), 100, 100, nil, w, nil, start, start,
	}
}

func setupRepo(t *testing.T) (Repository, sqlmock.Sqlmock, *sqlx.DB) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { dbx.Close() })
	return NewRepository(dbx), mock, dbx
}

func TestRepository_GetForUpdateInTx(t *testing.T) {
	repo, mock, dbx := setupRepo(t)
	tm := db.NewTxManager(dbx, 0)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM game_sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionRow(5, StatusOpen, 2, "")...))
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		s, err := repo.GetForUpdate(ctx, 5)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, s.CurrentPlayers)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`FROM game_sessions WHERE id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(sessionCols))

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetRoster(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`UPDATE game_sessions SET current_players = \$1, status = \$2`).
		WithArgs(4, StatusFull, 5).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionRow(5, StatusFull, 4, "")...))

	s, err := repo.SetRoster(context.Background(), 5, 4, StatusFull)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, s.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetRoster_CheckViolation(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`UPDATE game_sessions SET current_players`).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "game_sessions_current_players_check"})

	_, err := repo.SetRoster(context.Background(), 5, 9, StatusFull)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus_Lost(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`WHERE id = \$2 AND status = \$3`).
		WithArgs(StatusInProgress, 5, StatusFull).
		WillReturnRows(sqlmock.NewRows(sessionCols))

	_, err := repo.UpdateStatus(context.Background(), 5, StatusFull, StatusInProgress)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Complete(t *testing.T) {
	repo, mock, _ := setupRepo(t)
	score := "6-3 6-4"

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $3 AND status = 'in_progress'`)).
		WithArgs(score, "{1,2}", 5).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(sessionRow(5, StatusCompleted, 4, "{1,2}")...))

	s, err := repo.Complete(context.Background(), 5, &score, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, pq.Int64Array{1, 2}, s.WinnerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkOverdue(t *testing.T) {
	repo, mock, _ := setupRepo(t)
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status IN ('open_for_players', 'full') AND start_time < $1 RETURNING id`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(8))

	ids, err := repo.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 8}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertPlayer_Duplicate(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(`INSERT INTO game_players`).
		WithArgs(5, 7).
		WillReturnError(&pq.Error{Code: "23505", Constraint: playerConstraint})

	_, err := repo.InsertPlayer(context.Background(), 5, 7)
	assert.ErrorIs(t, err, apperr.ErrDuplicateParticipant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountActivePlayers(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM game_players WHERE session_id = $1 AND status <> 'cancelled'`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountActivePlayers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_BulkUpdatePlayerStatus(t *testing.T) {
	repo, mock, _ := setupRepo(t)

	mock.ExpectExec(`UPDATE game_players SET status = \$1`).
		WithArgs(PlayerNoShow, 5, PlayerRegistered).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.BulkUpdatePlayerStatus(context.Background(), 5, PlayerRegistered, PlayerNoShow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
