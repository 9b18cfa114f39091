package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courtside/internal/auth"
	"courtside/internal/bonus"
	"courtside/internal/booking"
	"courtside/internal/config"
	"courtside/internal/gamesession"
	"courtside/internal/janitor"
	"courtside/internal/participant"
	"courtside/internal/venue"
)

// Handlers groups the domain handlers mounted on the router.
type Handlers struct {
	Venues       *venue.Handler
	Bookings     *booking.Handler
	Participants *participant.Handler
	Bonus        *bonus.Handler
	Sessions     *gamesession.Handler
	Janitor      *janitor.Handler
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(cfg *config.Config, issuer *auth.TokenIssuer, pinger Pinger, h Handlers) *Server {
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
		limiter.Middleware(),
	)

	router.GET("/health", Health(pinger))
	router.GET("/metrics", Metrics())

	protected := router.Group("/")
	protected.Use(issuer.Middleware())
	{
		protected.GET("/venues", h.Venues.ListVenues)
		protected.GET("/venues/:venueID/courts", h.Venues.ListCourts)
		protected.GET("/courts/:courtID", h.Venues.GetCourt)

		protected.GET("/courts/:courtID/availability", h.Bookings.Availability)
		protected.GET("/courts/:courtID/bookings", h.Bookings.ListByCourt)
		protected.POST("/bookings", h.Bookings.Create)
		protected.GET("/me/bookings", h.Bookings.ListMine)
		protected.GET("/bookings/:bookingID", h.Bookings.Get)
		protected.PATCH("/bookings/:bookingID", h.Bookings.Update)
		protected.POST("/bookings/:bookingID/cancel", h.Bookings.Cancel)

		protected.POST("/bookings/:bookingID/participants", h.Participants.Add)
		protected.GET("/bookings/:bookingID/participants", h.Participants.List)
		protected.GET("/bookings/:bookingID/participants/stats", h.Participants.Stats)
		protected.GET("/bookings/:bookingID/participants/membership", h.Participants.Membership)
		protected.PATCH("/participants/:participantID/payment", h.Participants.UpdatePayment)
		protected.PATCH("/participants/:participantID/participation", h.Participants.UpdateParticipation)
		protected.DELETE("/participants/:participantID", h.Participants.Remove)

		protected.GET("/me/bonus/balance", h.Bonus.GetBalance)
		protected.GET("/me/bonus/history", h.Bonus.GetHistory)
		protected.GET("/me/bonus/summary", h.Bonus.GetSummary)

		protected.POST("/sessions", h.Sessions.Create)
		protected.GET("/sessions", h.Sessions.ListOpen)
		protected.GET("/sessions/:sessionID", h.Sessions.Get)
		protected.GET("/sessions/:sessionID/players", h.Sessions.ListPlayers)
		protected.POST("/sessions/:sessionID/players", h.Sessions.Join)
		protected.DELETE("/sessions/:sessionID/players", h.Sessions.Leave)
		protected.POST("/sessions/:sessionID/start", h.Sessions.Start)
		protected.POST("/sessions/:sessionID/result", h.Sessions.SetResult)
		protected.POST("/sessions/:sessionID/complete", h.Sessions.Complete)
		protected.POST("/sessions/:sessionID/cancel", h.Sessions.Cancel)
	}

	admin := router.Group("/admin")
	admin.Use(issuer.Middleware(), auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/venues", h.Venues.CreateVenue)
		admin.POST("/venues/:venueID/courts", h.Venues.CreateCourt)

		admin.POST("/bookings/:bookingID/confirm", h.Bookings.Confirm)
		admin.POST("/bookings/:bookingID/complete", h.Bookings.Complete)
		admin.DELETE("/bookings/:bookingID", h.Bookings.Delete)

		admin.POST("/participants/:participantID/refund", h.Participants.Refund)

		admin.POST("/bonus/transactions", h.Bonus.Record)
		admin.PATCH("/bonus/transactions/:transactionID", h.Bonus.CorrectDetails)
		admin.GET("/bonus/expiring", h.Bonus.Expiring)
		admin.GET("/bonus/expired", h.Bonus.Expired)
		admin.GET("/bonus/users/:userID/verify", h.Bonus.Verify)

		admin.PUT("/sessions/:sessionID/current-players", h.Sessions.UpdateCurrentPlayers)
		admin.POST("/sessions/:sessionID/players/status", h.Sessions.BulkUpdateStatus)
		admin.POST("/sessions/sweep", h.Janitor.Sweep)
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown makes it return
// http.ErrServerClosed.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}
