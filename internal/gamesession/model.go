package gamesession

import (
	"time"

	"github.com/lib/pq"
)

type Status string

const (
	StatusOpen       Status = "open_for_players"
	StatusFull       Status = "full"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusOpen:       {StatusFull, StatusCancelled},
	StatusFull:       {StatusOpen, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusFull, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Recruiting reports whether the roster may still change.
func (s Status) Recruiting() bool {
	return s == StatusOpen || s == StatusFull
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// RosterStatus is the status a session ends up in once its player count is
// current. Only open and full sessions follow the roster size.
func RosterStatus(status Status, current, max int) Status {
	if !status.Recruiting() {
		return status
	}
	if current >= max {
		return StatusFull
	}
	return StatusOpen
}

type PlayerStatus string

const (
	PlayerRegistered PlayerStatus = "registered"
	PlayerAttended   PlayerStatus = "attended"
	PlayerNoShow     PlayerStatus = "no_show"
	PlayerCancelled  PlayerStatus = "cancelled"
)

func (s PlayerStatus) Valid() bool {
	switch s {
	case PlayerRegistered, PlayerAttended, PlayerNoShow, PlayerCancelled:
		return true
	}
	return false
}

// Active players count towards the roster.
func (s PlayerStatus) Active() bool {
	return s.Valid() && s != PlayerCancelled
}

type GameSession struct {
	ID             int           `db:"id" json:"id"`
	VenueID        int           `db:"venue_id" json:"venue_id"`
	CourtID        *int          `db:"court_id" json:"court_id,omitempty"`
	StartTime      time.Time     `db:"start_time" json:"start_time"`
	EndTime        time.Time     `db:"end_time" json:"end_time"`
	GameType       string        `db:"game_type" json:"game_type"`
	SkillLevel     string        `db:"skill_level" json:"skill_level"`
	MaxPlayers     int           `db:"max_players" json:"max_players"`
	CurrentPlayers int           `db:"current_players" json:"current_players"`
	Status         Status        `db:"status" json:"status"`
	CreatedBy      int           `db:"created_by" json:"created_by"`
	HostID         int           `db:"host_id" json:"host_id"`
	MatchScore     *string       `db:"match_score" json:"match_score,omitempty"`
	WinnerIDs      pq.Int64Array `db:"winner_ids" json:"winner_ids,omitempty"`
	BookingID      *int          `db:"booking_id" json:"booking_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// HostedBy reports whether userID runs the session.
func (g *GameSession) HostedBy(userID int) bool {
	return g.HostID == userID || g.CreatedBy == userID
}

type Player struct {
	ID        int          `db:"id" json:"id"`
	SessionID int          `db:"session_id" json:"session_id"`
	UserID    int          `db:"user_id" json:"user_id"`
	Status    PlayerStatus `db:"status" json:"status"`
	JoinedAt  time.Time    `db:"joined_at" json:"joined_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	DefaultGameType   = "padel_doubles"
	DefaultSkillLevel = "any"
)

type CreateInput struct {
	VenueID    int
	CourtID    *int
	StartTime  time.Time
	EndTime    time.Time
	GameType   string
	SkillLevel string
	MaxPlayers int
	CreatedBy  int
	HostID     int
	BookingID  *int
}

type CreateSessionRequest struct {
	VenueID    int       `json:"venue_id" binding:"required,gt=0"`
	CourtID    *int      `json:"court_id,omitempty" binding:"omitempty,gt=0"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	GameType   string    `json:"game_type" binding:"omitempty,max=50"`
	SkillLevel string    `json:"skill_level" binding:"omitempty,max=50"`
	MaxPlayers int       `json:"max_players" binding:"required,gt=0,max=64"`
	HostID     int       `json:"host_id,omitempty" binding:"omitempty,gt=0"`
	BookingID  *int      `json:"booking_id,omitempty" binding:"omitempty,gt=0"`
}

type MatchResultRequest struct {
	Score     string  `json:"score" binding:"required,max=100"`
	WinnerIDs []int64 `json:"winner_ids" binding:"omitempty,dive,gt=0"`
}

type CurrentPlayersRequest struct {
	CurrentPlayers *int `json:"current_players" binding:"required,gte=0"`
}

type BulkStatusRequest struct {
	From PlayerStatus `json:"from" binding:"required,oneof=registered attended no_show"`
	To   PlayerStatus `json:"to" binding:"required,oneof=registered attended no_show"`
}

// AwardFailure is the payload of a completion credit that was not written.
type AwardFailure struct {
	SessionID int    `json:"session_id"`
	UserID    int    `json:"user_id"`
	Points    int64  `json:"points"`
	BookingID *int   `json:"booking_id,omitempty"`
	Error     string `json:"error"`
}

type CountResponse struct {
	Updated int `json:"updated"`
}
