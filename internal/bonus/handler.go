package bonus

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

// @Summary      Get my bonus balance
// @Tags         bonus
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} bonus.BalanceResponse
// @Router       /me/bonus/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	balance, err := h.service.GetCurrentBalance(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}

// @Summary      Get my bonus history
// @Tags         bonus
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max rows (default 50)"
// @Success      200 {array} bonus.Transaction
// @Router       /me/bonus/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = v
	}

	history, err := h.service.GetBalanceHistory(c.Request.Context(), userID, limit)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) GetSummary(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	summary, err := h.service.GetUserBonusSummary(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary      Record a bonus transaction
// @Tags         admin,bonus
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body bonus.RecordTransactionRequest true "Transaction"
// @Success      201 {object} bonus.Transaction
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /admin/bonus/transactions [post]
func (h *Handler) Record(c *gin.Context) {
	var req RecordTransactionRequest
	if !api.BindJSON(c, &req) {
		return
	}

	tx, err := h.service.RecordTransaction(c.Request.Context(), RecordInput{
		UserID:           req.UserID,
		Type:             req.Type,
		PointsChange:     req.PointsChange,
		Description:      req.Description,
		RelatedOrderID:   req.RelatedOrderID,
		RelatedBookingID: req.RelatedBookingID,
		ExpiresAt:        req.ExpiresAt,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) CorrectDetails(c *gin.Context) {
	id, ok := api.IDParam(c, "transactionID")
	if !ok {
		return
	}

	var req CorrectDetailsRequest
	if !api.BindJSON(c, &req) {
		return
	}

	tx, err := h.service.CorrectDetails(c.Request.Context(), id, req.Description, req.ExpiresAt)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *Handler) Expiring(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid days"})
			return
		}
		days = v
	}

	rows, err := h.service.FindExpiringBonuses(c.Request.Context(), days)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func (h *Handler) Expired(c *gin.Context) {
	rows, err := h.service.FindExpiredBonuses(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// @Summary      Replay and check a user's ledger
// @Tags         admin,bonus
// @Produce      json
// @Security     BearerAuth
// @Param        userID path int true "User ID"
// @Success      200 {object} bonus.VerifyReport
// @Router       /admin/bonus/users/{userID}/verify [get]
func (h *Handler) Verify(c *gin.Context) {
	userID, ok := api.IDParam(c, "userID")
	if !ok {
		return
	}

	report, err := h.service.VerifyUserLedger(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
