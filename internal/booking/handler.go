package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"courtside/internal/api"
	"courtside/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Book a court
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.CreateBookingRequest true "Booking payload"
// @Success      201 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Create(c.Request.Context(), CreateInput{
		CourtID:         req.CourtID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		BookedBy:        userID,
		Purpose:         req.Purpose,
		Notes:           req.Notes,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      404 {object} api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Update a booking
// @Description  Changing court or times re-runs the availability check
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Param        request body booking.UpdateBookingRequest true "Fields to change"
// @Success      200 {object} booking.Booking
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{bookingID} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, req.Patch())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Confirm a booking after payment
// @Tags         admin,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Cancel a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Mark a booking as played
// @Tags         admin,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Router       /admin/bookings/{bookingID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	id, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary      Check court availability
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        courtID path int true "Court ID"
// @Param        start query string true "RFC3339 start"
// @Param        end query string true "RFC3339 end"
// @Param        exclude query int false "Booking ID to ignore"
// @Success      200 {object} booking.AvailabilityResponse
// @Router       /courts/{courtID}/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	courtID, ok := api.IDParam(c, "courtID")
	if !ok {
		return
	}
	start, ok := api.TimeQuery(c, "start", true)
	if !ok {
		return
	}
	end, ok := api.TimeQuery(c, "end", true)
	if !ok {
		return
	}

	exclude := 0
	if raw := c.Query("exclude"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid exclude"})
			return
		}
		exclude = v
	}

	available, err := h.service.IsAvailable(c.Request.Context(), courtID, start, end, exclude)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
		Available: available,
	})
}

func (h *Handler) ListByCourt(c *gin.Context) {
	courtID, ok := api.IDParam(c, "courtID")
	if !ok {
		return
	}
	from, ok := api.TimeQuery(c, "from", false)
	if !ok {
		return
	}
	to, ok := api.TimeQuery(c, "to", false)
	if !ok {
		return
	}

	bookings, err := h.service.ListByCourt(c.Request.Context(), courtID, from, to)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.Booking
// @Router       /me/bookings [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	bookings, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ownedBooking resolves the path booking and checks the caller booked it.
// Admins may act on any booking.
func (h *Handler) ownedBooking(c *gin.Context) (int, bool) {
	id, ok := api.IDParam(c, "bookingID")
	if !ok {
		return 0, false
	}
	if auth.IsAdmin(c) {
		return id, true
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return 0, false
	}

	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return 0, false
	}
	if b.BookedBy != userID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "can only modify own bookings"})
		return 0, false
	}
	return id, true
}
