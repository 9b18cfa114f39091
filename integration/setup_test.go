package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"courtside/internal/db"
	"courtside/internal/venue"
)

var testTables = []string{
	"bonus_transactions",
	"game_players",
	"game_sessions",
	"booking_participants",
	"bookings",
	"courts",
	"venues",
}

// setupTestDB connects to TEST_DATABASE_URL, migrates it and empties every
// table. Tests are skipped in -short mode or when no database is configured.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	conn, err := db.Connect(dsn)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(conn, "../migrations"))
	cleanDatabase(t, conn)
	return conn
}

func cleanDatabase(t *testing.T, conn *sqlx.DB) {
	t.Helper()
	for _, table := range testTables {
		_, err := conn.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to clean table "+table)
	}
}

func createCourt(t *testing.T, conn *sqlx.DB) (venueID, courtID int) {
	t.Helper()
	ctx := context.Background()
	svc := venue.NewService(venue.NewRepository(conn))

	v, err := svc.CreateVenue(ctx, venue.CreateVenueRequest{Name: "Padel Club " + t.Name(), Address: "Harbour Road 1"})
	require.NoError(t, err)
	c, err := svc.CreateCourt(ctx, v.ID, venue.CreateCourtRequest{Name: "Court 1", Surface: "glass", Indoor: true})
	require.NoError(t, err)
	return v.ID, c.ID
}

// slot returns an hour-aligned time on a fixed future day.
func slot(hour, minute int) time.Time {
	return time.Date(2031, time.March, 14, hour, minute, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }
