package gamesession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtside/internal/apperr"
	"courtside/internal/bonus"
	"courtside/internal/db"
	"courtside/internal/events"
	"courtside/internal/logger"
	"courtside/internal/metrics"
)

var ErrSessionFull = fmt.Errorf("%w: session is full", apperr.ErrConflict)

// PointsRecorder credits bonus points. bonus.Service satisfies it.
type PointsRecorder interface {
	RecordTransaction(ctx context.Context, in bonus.RecordInput) (*bonus.Transaction, error)
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*GameSession, error)
	Get(ctx context.Context, id int) (*GameSession, error)
	ListOpen(ctx context.Context, from time.Time) ([]GameSession, error)
	ListPlayers(ctx context.Context, sessionID int) ([]Player, error)
	AddPlayer(ctx context.Context, sessionID, userID int) (*GameSession, error)
	RemovePlayer(ctx context.Context, sessionID, userID int) (*GameSession, error)
	UpdateCurrentPlayers(ctx context.Context, id, n int) (*GameSession, error)
	Start(ctx context.Context, id int) (*GameSession, error)
	SetMatchResult(ctx context.Context, id int, score string, winners []int64) (*GameSession, error)
	Complete(ctx context.Context, id int) (*GameSession, error)
	Cancel(ctx context.Context, id int) (*GameSession, error)
	MarkOverdueSessions(ctx context.Context, now time.Time) (int, error)
	BulkUpdateStatus(ctx context.Context, sessionID int, from, to PlayerStatus) (int, error)
}

type service struct {
	repo          Repository
	tx            db.Transactor
	points        PointsRecorder
	pointsPerGame int64
	publisher     events.Publisher
}

// NewService wires the session lifecycle. pointsPerGame of 0 turns off
// completion awards.
func NewService(repo Repository, tx db.Transactor, points PointsRecorder, pointsPerGame int64, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		repo:          repo,
		tx:            tx,
		points:        points,
		pointsPerGame: pointsPerGame,
		publisher:     publisher,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*GameSession, error) {
	if in.VenueID <= 0 {
		return nil, fmt.Errorf("%w: venue_id is required", apperr.ErrValidation)
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, fmt.Errorf("%w: start time must be before end time", apperr.ErrValidation)
	}
	if in.MaxPlayers < 1 {
		return nil, fmt.Errorf("%w: max players must be at least 1", apperr.ErrValidation)
	}
	if in.CreatedBy <= 0 {
		return nil, fmt.Errorf("%w: created_by is required", apperr.ErrValidation)
	}

	session := &GameSession{
		VenueID:    in.VenueID,
		CourtID:    in.CourtID,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		GameType:   strings.TrimSpace(in.GameType),
		SkillLevel: strings.TrimSpace(in.SkillLevel),
		MaxPlayers: in.MaxPlayers,
		Status:     StatusOpen,
		CreatedBy:  in.CreatedBy,
		HostID:     in.HostID,
		BookingID:  in.BookingID,
	}
	if session.GameType == "" {
		session.GameType = DefaultGameType
	}
	if session.SkillLevel == "" {
		session.SkillLevel = DefaultSkillLevel
	}
	if session.HostID <= 0 {
		session.HostID = in.CreatedBy
	}

	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition(string(created.Status))
	logger.Info("game session created", "session_id", created.ID, "venue_id", created.VenueID, "max_players", created.MaxPlayers)
	s.publish(ctx, events.SessionCreated, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int) (*GameSession, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListOpen(ctx context.Context, from time.Time) ([]GameSession, error) {
	if from.IsZero() {
		from = time.Now()
	}
	return s.repo.ListOpen(ctx, from)
}

func (s *service) ListPlayers(ctx context.Context, sessionID int) ([]Player, error) {
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListPlayers(ctx, sessionID)
}

func (s *service) AddPlayer(ctx context.Context, sessionID, userID int) (*GameSession, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", apperr.ErrValidation)
	}

	var updated *GameSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		switch session.Status {
		case StatusOpen:
		case StatusFull:
			return fmt.Errorf("%w: %d of %d places taken", ErrSessionFull, session.CurrentPlayers, session.MaxPlayers)
		default:
			return fmt.Errorf("%w: session %d is %s, not accepting players",
				apperr.ErrInvalidTransition, sessionID, session.Status)
		}

		existing, err := s.repo.GetPlayer(ctx, sessionID, userID)
		switch {
		case errors.Is(err, ErrPlayerNotFound):
			if _, err := s.repo.InsertPlayer(ctx, sessionID, userID); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Status.Active():
			return fmt.Errorf("%w: user %d already joined session %d",
				apperr.ErrDuplicateParticipant, userID, sessionID)
		default:
			if _, err := s.repo.SetPlayerStatus(ctx, existing.ID, PlayerRegistered); err != nil {
				return err
			}
		}

		updated, err = s.recount(ctx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("player joined session", "session_id", sessionID, "user_id", userID,
		"current_players", updated.CurrentPlayers, "status", updated.Status)
	return updated, nil
}

func (s *service) RemovePlayer(ctx context.Context, sessionID, userID int) (*GameSession, error) {
	var updated *GameSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.Status.Recruiting() {
			return fmt.Errorf("%w: session %d is %s, roster is closed",
				apperr.ErrInvalidTransition, sessionID, session.Status)
		}

		player, err := s.repo.GetPlayer(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if !player.Status.Active() {
			return ErrPlayerNotFound
		}
		if _, err := s.repo.SetPlayerStatus(ctx, player.ID, PlayerCancelled); err != nil {
			return err
		}

		updated, err = s.recount(ctx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("player left session", "session_id", sessionID, "user_id", userID,
		"current_players", updated.CurrentPlayers, "status", updated.Status)
	return updated, nil
}

// recount derives currentPlayers from the roster. The session row must
// already be locked by the caller's transaction.
func (s *service) recount(ctx context.Context, session *GameSession) (*GameSession, error) {
	n, err := s.repo.CountActivePlayers(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if n > session.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players for %d places", ErrSessionFull, n, session.MaxPlayers)
	}
	return s.applyCount(ctx, session, n)
}

func (s *service) UpdateCurrentPlayers(ctx context.Context, id, n int) (*GameSession, error) {
	var updated *GameSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if n < 0 || n > session.MaxPlayers {
			return fmt.Errorf("%w: player count %d outside 0..%d", apperr.ErrValidation, n, session.MaxPlayers)
		}
		updated, err = s.applyCount(ctx, session, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) applyCount(ctx context.Context, session *GameSession, n int) (*GameSession, error) {
	status := RosterStatus(session.Status, n, session.MaxPlayers)
	updated, err := s.repo.SetRoster(ctx, session.ID, n, status)
	if err != nil {
		return nil, err
	}
	if status != session.Status {
		metrics.RecordSessionTransition(string(status))
		logger.Debug("session roster status flipped", "session_id", session.ID, "from", session.Status, "to", status)
	}
	return updated, nil
}

// Start requires a full roster.
func (s *service) Start(ctx context.Context, id int) (*GameSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusFull {
		return nil, fmt.Errorf("%w: session %d is %s, only a full session can start",
			apperr.ErrInvalidTransition, id, session.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusFull, StatusInProgress)
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition(string(StatusInProgress))
	logger.Info("game session started", "session_id", id, "players", updated.CurrentPlayers)
	s.publish(ctx, events.SessionStarted, updated)
	return updated, nil
}

func (s *service) SetMatchResult(ctx context.Context, id int, score string, winners []int64) (*GameSession, error) {
	score = strings.TrimSpace(score)
	if score == "" {
		return nil, fmt.Errorf("%w: score is required", apperr.ErrValidation)
	}
	if len(winners) > 0 {
		if err := s.checkWinners(ctx, id, winners); err != nil {
			return nil, err
		}
	}
	if winners == nil {
		winners = []int64{}
	}
	return s.complete(ctx, id, &score, winners)
}

func (s *service) Complete(ctx context.Context, id int) (*GameSession, error) {
	return s.complete(ctx, id, nil, nil)
}

func (s *service) checkWinners(ctx context.Context, id int, winners []int64) error {
	players, err := s.repo.ListPlayers(ctx, id)
	if err != nil {
		return err
	}
	active := make(map[int64]bool, len(players))
	for _, p := range players {
		if p.Status.Active() {
			active[int64(p.UserID)] = true
		}
	}
	for _, w := range winners {
		if !active[w] {
			return fmt.Errorf("%w: winner %d is not on the roster", apperr.ErrValidation, w)
		}
	}
	return nil
}

func (s *service) complete(ctx context.Context, id int, score *string, winners []int64) (*GameSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: session %d is %s, cannot complete",
			apperr.ErrInvalidTransition, id, session.Status)
	}

	updated, err := s.repo.Complete(ctx, id, score, winners)
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition(string(StatusCompleted))
	logger.Info("game session completed", "session_id", id)
	s.publish(ctx, events.SessionCompleted, updated)
	s.awardPoints(ctx, updated)
	return updated, nil
}

// awardPoints credits every active player after completion. The session is
// already committed, so a failed credit is published for a later retry.
func (s *service) awardPoints(ctx context.Context, session *GameSession) {
	if s.points == nil || s.pointsPerGame <= 0 {
		return
	}

	players, err := s.repo.ListPlayers(ctx, session.ID)
	if err != nil {
		logger.Error("load roster for points award", "session_id", session.ID, "error", err)
		return
	}

	for _, p := range players {
		if !p.Status.Active() {
			continue
		}
		_, err := s.points.RecordTransaction(ctx, bonus.RecordInput{
			UserID:           p.UserID,
			Type:             bonus.TypeEarned,
			PointsChange:     s.pointsPerGame,
			Description:      fmt.Sprintf("game session #%d", session.ID),
			RelatedBookingID: session.BookingID,
		})
		if err != nil {
			logger.Error("award game points", "session_id", session.ID, "user_id", p.UserID, "error", err)
			metrics.RecordSessionAwardFailure()
			s.publish(ctx, events.SessionAwardFailed, AwardFailure{
				SessionID: session.ID,
				UserID:    p.UserID,
				Points:    s.pointsPerGame,
				BookingID: session.BookingID,
				Error:     err.Error(),
			})
		}
	}
}

func (s *service) Cancel(ctx context.Context, id int) (*GameSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(StatusCancelled) {
		return nil, fmt.Errorf("%w: session %d is %s, cannot cancel",
			apperr.ErrInvalidTransition, id, session.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, session.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition(string(StatusCancelled))
	logger.Info("game session cancelled", "session_id", id, "from", session.Status)
	s.publish(ctx, events.SessionCancelled, updated)
	return updated, nil
}

func (s *service) MarkOverdueSessions(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.MarkOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	metrics.RecordSessionsSwept(len(ids))
	if len(ids) > 0 {
		logger.Info("overdue sessions cancelled", "count", len(ids), "session_ids", ids)
		s.publish(ctx, events.SessionsSwept, map[string]any{"session_ids": ids, "swept_at": now})
	}
	return len(ids), nil
}

// BulkUpdateStatus re-labels players without touching the roster size, so
// moves into or out of cancelled are refused.
func (s *service) BulkUpdateStatus(ctx context.Context, sessionID int, from, to PlayerStatus) (int, error) {
	if !from.Valid() || !to.Valid() {
		return 0, fmt.Errorf("%w: unknown player status", apperr.ErrValidation)
	}
	if from == PlayerCancelled || to == PlayerCancelled {
		return 0, fmt.Errorf("%w: cancelling players changes the roster, use RemovePlayer", apperr.ErrValidation)
	}
	if from == to {
		return 0, fmt.Errorf("%w: from and to status are the same", apperr.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return 0, err
	}

	n, err := s.repo.BulkUpdatePlayerStatus(ctx, sessionID, from, to)
	if err != nil {
		return 0, err
	}
	logger.Info("players relabelled", "session_id", sessionID, "from", from, "to", to, "count", n)
	return n, nil
}

func (s *service) publish(ctx context.Context, key string, payload any) {
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		logger.Warn("publish session event", "key", key, "error", err)
	}
}
