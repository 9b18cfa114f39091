package participant

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

// @Summary      Add a participant to a booking
// @Tags         participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Param        request body participant.AddParticipantRequest true "Participant payload"
// @Success      201 {object} participant.Participant
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/participants [post]
func (h *Handler) Add(c *gin.Context) {
	bookingID, ok := api.IDParam(c, "bookingID")
	if !ok || !h.authorize(c, bookingID) {
		return
	}

	var req AddParticipantRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AddParticipant(c.Request.Context(), AddInput{
		BookingID:     bookingID,
		UserID:        req.UserID,
		AmountOwed:    req.AmountOwed,
		AmountPaid:    req.AmountPaid,
		IsHost:        req.IsHost,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	bookingID, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	participants, err := h.service.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// @Summary      Payment totals for a booking
// @Tags         participants
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} participant.PaymentStats
// @Router       /bookings/{bookingID}/participants/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	bookingID, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}

	stats, err := h.service.GetPaymentStats(c.Request.Context(), bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Membership(c *gin.Context) {
	bookingID, ok := api.IDParam(c, "bookingID")
	if !ok {
		return
	}
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "user_id query param is required"})
		return
	}

	ctx := c.Request.Context()
	isParticipant, err := h.service.IsUserParticipant(ctx, bookingID, userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	isHost, err := h.service.IsUserHost(ctx, bookingID, userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MembershipResponse{
		BookingID:     bookingID,
		UserID:        userID,
		IsParticipant: isParticipant,
		IsHost:        isHost,
	})
}

// @Summary      Record a payment
// @Tags         participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        participantID path int true "Participant ID"
// @Param        request body participant.UpdatePaymentRequest true "Payment update"
// @Success      200 {object} participant.Participant
// @Failure      422 {object} api.ErrorResponse
// @Router       /participants/{participantID}/payment [patch]
func (h *Handler) UpdatePayment(c *gin.Context) {
	id, ok := h.managedParticipant(c, false)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus, req.AmountPaid)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateParticipation(c *gin.Context) {
	id, ok := h.managedParticipant(c, false)
	if !ok {
		return
	}

	var req UpdateParticipationRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateParticipationStatus(c.Request.Context(), id, req.ParticipationStatus)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Refund a participant
// @Tags         admin,participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        participantID path int true "Participant ID"
// @Param        request body participant.RefundRequest true "Refund amount"
// @Success      200 {object} participant.Participant
// @Router       /admin/participants/{participantID}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	id, ok := api.IDParam(c, "participantID")
	if !ok {
		return
	}

	var req RefundRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Refund(c.Request.Context(), id, req.Amount)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Remove also lets a participant take themselves off a booking.
func (h *Handler) Remove(c *gin.Context) {
	id, ok := h.managedParticipant(c, true)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// authorize admits admins, the booker and the booking's hosts.
func (h *Handler) authorize(c *gin.Context, bookingID int) bool {
	if auth.IsAdmin(c) {
		return true
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return false
	}

	allowed, err := h.service.CanManage(c.Request.Context(), bookingID, userID)
	if err != nil {
		api.RespondError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the booker or a host can manage participants"})
		return false
	}
	return true
}

func (h *Handler) managedParticipant(c *gin.Context, allowSelf bool) (int, bool) {
	id, ok := api.IDParam(c, "participantID")
	if !ok {
		return 0, false
	}
	if auth.IsAdmin(c) {
		return id, true
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return 0, false
	}
	if allowSelf {
		if userID, ok := auth.GetUserID(c); ok && userID == p.UserID {
			return id, true
		}
	}
	if !h.authorize(c, p.BookingID) {
		return 0, false
	}
	return id, true
}
