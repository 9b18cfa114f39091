package venue

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtside/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a venue
// @Tags         admin,venues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body venue.CreateVenueRequest true "Venue payload"
// @Success      201 {object} venue.Venue
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/venues [post]
func (h *Handler) CreateVenue(c *gin.Context) {
	var req CreateVenueRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, err := h.service.CreateVenue(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, v)
}

// @Summary      List venues
// @Tags         venues
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} venue.Venue
// @Router       /venues [get]
func (h *Handler) ListVenues(c *gin.Context) {
	venues, err := h.service.ListVenues(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, venues)
}

// @Summary      Create a court
// @Tags         admin,venues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        venueID path int true "Venue ID"
// @Param        request body venue.CreateCourtRequest true "Court payload"
// @Success      201 {object} venue.Court
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/venues/{venueID}/courts [post]
func (h *Handler) CreateCourt(c *gin.Context) {
	venueID, ok := api.IDParam(c, "venueID")
	if !ok {
		return
	}

	var req CreateCourtRequest
	if !api.BindJSON(c, &req) {
		return
	}

	court, err := h.service.CreateCourt(c.Request.Context(), venueID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, court)
}

// @Summary      List courts of a venue
// @Tags         venues
// @Produce      json
// @Security     BearerAuth
// @Param        venueID path int true "Venue ID"
// @Success      200 {array} venue.Court
// @Router       /venues/{venueID}/courts [get]
func (h *Handler) ListCourts(c *gin.Context) {
	venueID, ok := api.IDParam(c, "venueID")
	if !ok {
		return
	}

	courts, err := h.service.ListCourts(c.Request.Context(), venueID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, courts)
}

func (h *Handler) GetCourt(c *gin.Context) {
	id, ok := api.IDParam(c, "courtID")
	if !ok {
		return
	}

	court, err := h.service.GetCourt(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, court)
}
