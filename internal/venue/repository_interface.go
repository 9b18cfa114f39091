package venue

import "context"

type Repository interface {
	CreateVenue(ctx context.Context, name, address string) (*Venue, error)
	ListVenues(ctx context.Context) ([]Venue, error)
	GetVenue(ctx context.Context, id int) (*Venue, error)
	CreateCourt(ctx context.Context, c *Court) (*Court, error)
	ListCourts(ctx context.Context, venueID int) ([]Court, error)
	GetCourt(ctx context.Context, id int) (*Court, error)
	CourtExists(ctx context.Context, id int) (bool, error)
}
