package venue

import (
	"context"
	"fmt"
	"strings"

	"courtside/internal/apperr"
)

type Service interface {
	CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error)
	ListVenues(ctx context.Context) ([]Venue, error)
	CreateCourt(ctx context.Context, venueID int, req CreateCourtRequest) (*Court, error)
	ListCourts(ctx context.Context, venueID int) ([]Court, error)
	GetCourt(ctx context.Context, id int) (*Court, error)
	CourtExists(ctx context.Context, id int) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: venue name is required", apperr.ErrValidation)
	}
	return s.repo.CreateVenue(ctx, name, strings.TrimSpace(req.Address))
}

func (s *service) ListVenues(ctx context.Context) ([]Venue, error) {
	return s.repo.ListVenues(ctx)
}

func (s *service) CreateCourt(ctx context.Context, venueID int, req CreateCourtRequest) (*Court, error) {
	if _, err := s.repo.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: court name is required", apperr.ErrValidation)
	}

	surface := req.Surface
	if surface == "" {
		surface = "artificial_grass"
	}

	return s.repo.CreateCourt(ctx, &Court{
		VenueID: venueID,
		Name:    name,
		Surface: surface,
		Indoor:  req.Indoor,
	})
}

func (s *service) ListCourts(ctx context.Context, venueID int) ([]Court, error) {
	if _, err := s.repo.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}
	return s.repo.ListCourts(ctx, venueID)
}

func (s *service) GetCourt(ctx context.Context, id int) (*Court, error) {
	return s.repo.GetCourt(ctx, id)
}

func (s *service) CourtExists(ctx context.Context, id int) (bool, error) {
	return s.repo.CourtExists(ctx, id)
}
