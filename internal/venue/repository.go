package venue

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"courtside/internal/apperr"
	"courtside/internal/db"
)

var (
	ErrVenueNotFound = fmt.Errorf("venue %w", apperr.ErrNotFound)
	ErrCourtNotFound = fmt.Errorf("court %w", apperr.ErrNotFound)
)

const (
	venueColumns = "id, name, address, created_at"
	courtColumns = "id, venue_id, name, surface, indoor, active, created_at"
)

type repository struct {
	db     *sqlx.DB
	venues db.Table[Venue]
	courts db.Table[Court]
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{
		db:     conn,
		venues: db.NewTable[Venue](conn, "venues", venueColumns, ErrVenueNotFound),
		courts: db.NewTable[Court](conn, "courts", courtColumns, ErrCourtNotFound),
	}
}

func (r *repository) CreateVenue(ctx context.Context, name, address string) (*Venue, error) {
	query := `
		INSERT INTO venues (name, address)
		VALUES ($1, $2)
		RETURNING ` + venueColumns

	var v Venue
	if err := db.Conn(ctx, r.db).GetContext(ctx, &v, query, name, address); err != nil {
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	return &v, nil
}

func (r *repository) ListVenues(ctx context.Context) ([]Venue, error) {
	return r.venues.Select(ctx, "", "name ASC")
}

func (r *repository) GetVenue(ctx context.Context, id int) (*Venue, error) {
	return r.venues.Get(ctx, id)
}

func (r *repository) CreateCourt(ctx context.Context, c *Court) (*Court, error) {
	query := `
		INSERT INTO courts (venue_id, name, surface, indoor)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + courtColumns

	var created Court
	err := db.Conn(ctx, r.db).GetContext(ctx, &created, query, c.VenueID, c.Name, c.Surface, c.Indoor)
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return nil, ErrVenueNotFound
		}
		if db.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: court %q already exists at this venue", apperr.ErrConflict, c.Name)
		}
		return nil, fmt.Errorf("insert court: %w", err)
	}
	return &created, nil
}

func (r *repository) ListCourts(ctx context.Context, venueID int) ([]Court, error) {
	return r.courts.Select(ctx, "venue_id = $1", "name ASC", venueID)
}

func (r *repository) GetCourt(ctx context.Context, id int) (*Court, error) {
	return r.courts.Get(ctx, id)
}

// CourtExists counts only courts that can still take bookings.
func (r *repository) CourtExists(ctx context.Context, id int) (bool, error) {
	return db.Exists(ctx, db.Conn(ctx, r.db),
		`SELECT EXISTS(SELECT 1 FROM courts WHERE id = $1 AND active)`, id)
}
