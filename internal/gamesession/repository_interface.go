package gamesession

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *GameSession) (*GameSession, error)
	Get(ctx context.Context, id int) (*GameSession, error)
	GetForUpdate(ctx context.Context, id int) (*GameSession, error)
	ListOpen(ctx context.Context, from time.Time) ([]GameSession, error)
	SetRoster(ctx context.Context, id, current int, status Status) (*GameSession, error)
	UpdateStatus(ctx context.Context, id int, from, to Status) (*GameSession, error)
	Complete(ctx context.Context, id int, score *string, winners []int64) (*GameSession, error)
	MarkOverdue(ctx context.Context, now time.Time) ([]int, error)

	GetPlayer(ctx context.Context, sessionID, userID int) (*Player, error)
	InsertPlayer(ctx context.Context, sessionID, userID int) (*Player, error)
	SetPlayerStatus(ctx context.Context, playerID int, status PlayerStatus) (*Player, error)
	CountActivePlayers(ctx context.Context, sessionID int) (int, error)
	ListPlayers(ctx context.Context, sessionID int) ([]Player, error)
	BulkUpdatePlayerStatus(ctx context.Context, sessionID int, from, to PlayerStatus) (int, error)
}
