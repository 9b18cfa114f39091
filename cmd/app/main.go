package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"courtside/internal/auth"
	"courtside/internal/bonus"
	"courtside/internal/booking"
	"courtside/internal/config"
	"courtside/internal/db"
	"courtside/internal/events"
	"courtside/internal/gamesession"
	"courtside/internal/janitor"
	"courtside/internal/logger"
	"courtside/internal/participant"
	"courtside/internal/server"
	"courtside/internal/venue"
)

// @title Courtside API
// @version 1.0
// @description Court booking, game sessions and bonus points for padel and tennis clubs.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("Starting Courtside", "env", cfg.Env, "port", cfg.Port)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		logger.Fatalf("Failed to set up token verification: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info("Publishing domain events", "exchange", cfg.RabbitExchange)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	tx := db.NewTxManager(database, cfg.DBTxRetries)

	venueService := venue.NewService(venue.NewRepository(database))
	bookingService := booking.NewService(booking.NewRepository(database), venueService, tx, publisher)
	participantService := participant.NewService(participant.NewRepository(database), bookingService, tx)
	bonusService := bonus.NewService(bonus.NewRepository(database), cfg.BonusMaxRetries)
	sessionService := gamesession.NewService(
		gamesession.NewRepository(database), tx, bonusService, cfg.BonusPointsPerGame, publisher,
	)

	sweeper, err := janitor.New(sessionService, janitor.NewRedisLocker(rdb), cfg.SweepInterval)
	if err != nil {
		logger.Fatalf("Failed to create janitor: %v", err)
	}
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("Failed to start janitor: %v", err)
	}

	srv := server.New(cfg, issuer, database, server.Handlers{
		Venues:       venue.NewHandler(venueService),
		Bookings:     booking.NewHandler(bookingService),
		Participants: participant.NewHandler(participantService),
		Bonus:        bonus.NewHandler(bonusService),
		Sessions:     gamesession.NewHandler(sessionService),
		Janitor:      janitor.NewHandler(sweeper),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		logger.Errorf("Error stopping janitor: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
