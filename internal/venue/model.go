package venue

import "time"

type Venue struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Court struct {
	ID        int       `db:"id" json:"id"`
	VenueID   int       `db:"venue_id" json:"venue_id"`
	Name      string    `db:"name" json:"name"`
	Surface   string    `db:"surface" json:"surface"`
	Indoor    bool      `db:"indoor" json:"indoor"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateVenueRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type CreateCourtRequest struct {
	Name    string `json:"name" binding:"required"`
	Surface string `json:"surface" binding:"omitempty,oneof=artificial_grass glass concrete clay hard"`
	Indoor  bool   `json:"indoor"`
}
