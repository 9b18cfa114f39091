package gamesession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var (
	ErrSessionNotFound = fmt.Errorf("game session %w", apperr.ErrNotFound)
	ErrPlayerNotFound  = fmt.Errorf("player %w", apperr.ErrNotFound)
	ErrStatusChanged   = fmt.Errorf("%w: session status changed concurrently", apperr.ErrInvalidTransition)
)

const (
	playerConstraint = "game_players_session_id_user_id_key"

	sessionColumns = `id, venue_id, court_id, start_time, end_time, game_type, skill_level,
		max_players, current_players, status, created_by, host_id, match_score, winner_ids,
		booking_id, created_at, updated_at`
	playerColumns = `id, session_id, user_id, status, joined_at, updated_at`
)

type repository struct {
	db       *sqlx.DB
	sessions db.Table[GameSession]
	players  db.Table[Player]
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{
		db:       conn,
		sessions: db.NewTable[GameSession](conn, "game_sessions", sessionColumns, ErrSessionNotFound),
		players:  db.NewTable[Player](conn, "game_players", playerColumns, ErrPlayerNotFound),
	}
}

func (r *repository) Create(ctx context.Context, s *GameSession) (*GameSession, error) {
	query := `
		INSERT INTO game_sessions (venue_id, court_id, start_time, end_time, game_type, skill_level,
			max_players, current_players, status, created_by, host_id, booking_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + sessionColumns

	var created GameSession
	err := db.Conn(ctx, r.db).GetContext(ctx, &created, query,
		s.VenueID, s.CourtID, s.StartTime, s.EndTime, s.GameType, s.SkillLevel,
		s.MaxPlayers, s.CurrentPlayers, s.Status, s.CreatedBy, s.HostID, s.BookingID,
	)
	if err != nil {
		switch {
		case db.IsForeignKeyViolation(err, ""):
			return nil, fmt.Errorf("%w: venue, court or booking does not exist", apperr.ErrNotFound)
		case db.IsCheckViolation(err, ""):
			return nil, fmt.Errorf("%w: session violates a table constraint", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("insert game session: %w", err)
	}
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*GameSession, error) {
	return r.sessions.Get(ctx, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id int) (*GameSession, error) {
	return r.sessions.GetForUpdate(ctx, id)
}

func (r *repository) ListOpen(ctx context.Context, from time.Time) ([]GameSession, error) {
	return r.sessions.Select(ctx, "status = 'open_for_players' AND start_time >= $1", "start_time ASC", from)
}

func (r *repository) SetRoster(ctx context.Context, id, current int, status Status) (*GameSession, error) {
	query := `
		UPDATE game_sessions
		SET current_players = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + sessionColumns

	var updated GameSession
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, current, status, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		if db.IsCheckViolation(err, "") {
			return nil, fmt.Errorf("%w: player count out of range", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("update roster: %w", err)
	}
	return &updated, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, from, to Status) (*GameSession, error) {
	query := `
		UPDATE game_sessions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + sessionColumns

	var updated GameSession
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, to, id, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update session status: %w", err)
	}
	return &updated, nil
}

// Complete writes the result columns in the same statement as the status.
func (r *repository) Complete(ctx context.Context, id int, score *string, winners []int64) (*GameSession, error) {
	query := `
		UPDATE game_sessions
		SET status = 'completed',
			match_score = COALESCE($1, match_score),
			winner_ids = COALESCE($2, winner_ids),
			updated_at = NOW()
		WHERE id = $3 AND status = 'in_progress'
		RETURNING ` + sessionColumns

	var arr interface{}
	if winners != nil {
		arr = pq.Int64Array(winners)
	}

	var updated GameSession
	if err := db.Conn(ctx, r.db).GetContext(ctx, &updated, query, score, arr, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}
	return &updated, nil
}

// MarkOverdue cancels every recruiting session whose start has passed and
// returns the ids it changed.
func (r *repository) MarkOverdue(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		UPDATE game_sessions
		SET status = 'cancelled', updated_at = NOW()
		WHERE status IN ('open_for_players', 'full')
		  AND start_time < $1
		RETURNING id`

	ids := []int{}
	if err := db.Conn(ctx, r.db).SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("mark overdue sessions: %w", err)
	}
	return ids, nil
}

func (r *repository) GetPlayer(ctx context.Context, sessionID, userID int) (*Player, error) {
	query := fmt.Sprintf(`SELECT %s FROM game_players WHERE session_id = $1 AND user_id = $2`, playerColumns)

	var p Player
	if err := db.Conn(ctx, r.db).GetContext(ctx, &p, query, sessionID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	return &p, nil
}

func (r *repository) InsertPlayer(ctx context.Context, sessionID, userID int) (*Player, error) {
	query := `
		INSERT INTO game_players (session_id, user_id, status)
		VALUES ($1, $2, 'registered')
		RETURNING ` + playerColumns

	var p Player
	if err := db.Conn(ctx, r.db).GetContext(ctx, &p, query, sessionID, userID); err != nil {
		if db.IsUniqueViolation(err, playerConstraint) {
			return nil, fmt.Errorf("%w: user %d already joined session %d",
				apperr.ErrDuplicateParticipant, userID, sessionID)
		}
		return nil, fmt.Errorf("insert player: %w", err)
	}
	return &p, nil
}

func (r *repository) SetPlayerStatus(ctx context.Context, playerID int, status PlayerStatus) (*Player, error) {
	query := `
		UPDATE game_players
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + playerColumns

	var p Player
	if err := db.Conn(ctx, r.db).GetContext(ctx, &p, query, status, playerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("update player: %w", err)
	}
	return &p, nil
}

func (r *repository) CountActivePlayers(ctx context.Context, sessionID int) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM game_players WHERE session_id = $1 AND status <> 'cancelled'`
	if err := db.Conn(ctx, r.db).GetContext(ctx, &n, query, sessionID); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (r *repository) ListPlayers(ctx context.Context, sessionID int) ([]Player, error) {
	return r.players.Select(ctx, "session_id = $1", "joined_at ASC, id ASC", sessionID)
}

func (r *repository) BulkUpdatePlayerStatus(ctx context.Context, sessionID int, from, to PlayerStatus) (int, error) {
	query := `
		UPDATE game_players
		SET status = $1, updated_at = NOW()
		WHERE session_id = $2 AND status = $3`

	result, err := db.Conn(ctx, r.db).ExecContext(ctx, query, to, sessionID, from)
	if err != nil {
		return 0, fmt.Errorf("bulk update players: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
