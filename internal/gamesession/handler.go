package gamesession

import (
	"net/http"

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

// @Summary      Create a game session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gamesession.CreateSessionRequest true "Session"
// @Success      201 {object} gamesession.GameSession
// @Failure      400 {object} api.ErrorResponse
// @Router       /sessions [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateSessionRequest
	if !api.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Create(c.Request.Context(), CreateInput{
		VenueID:    req.VenueID,
		CourtID:    req.CourtID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		GameType:   req.GameType,
		SkillLevel: req.SkillLevel,
		MaxPlayers: req.MaxPlayers,
		CreatedBy:  userID,
		HostID:     req.HostID,
		BookingID:  req.BookingID,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	session, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary      List sessions still recruiting players
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "Earliest start (RFC3339), defaults to now"
// @Success      200 {array} gamesession.GameSession
// @Router       /sessions [get]
func (h *Handler) ListOpen(c *gin.Context) {
	from, ok := api.TimeQuery(c, "from", false)
	if !ok {
		return
	}

	sessions, err := h.service.ListOpen(c.Request.Context(), from)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) ListPlayers(c *gin.Context) {
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	players, err := h.service.ListPlayers(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, players)
}

// @Summary      Join a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} gamesession.GameSession
// @Failure      409 {object} api.ErrorResponse
// @Router       /sessions/{sessionID}/players [post]
func (h *Handler) Join(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	session, err := h.service.AddPlayer(c.Request.Context(), id, userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Leave(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	session, err := h.service.RemovePlayer(c.Request.Context(), id, userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Start(c *gin.Context) {
	id, ok := h.hostedSession(c)
	if !ok {
		return
	}

	session, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) SetResult(c *gin.Context) {
	id, ok := h.hostedSession(c)
	if !ok {
		return
	}

	var req MatchResultRequest
	if !api.BindJSON(c, &req) {
		return
	}

	session, err := h.service.SetMatchResult(c.Request.Context(), id, req.Score, req.WinnerIDs)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := h.hostedSession(c)
	if !ok {
		return
	}

	session, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.hostedSession(c)
	if !ok {
		return
	}

	session, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// UpdateCurrentPlayers is an admin correction of the stored count.
func (h *Handler) UpdateCurrentPlayers(c *gin.Context) {
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	var req CurrentPlayersRequest
	if !api.BindJSON(c, &req) {
		return
	}

	session, err := h.service.UpdateCurrentPlayers(c.Request.Context(), id, *req.CurrentPlayers)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	id, ok := api.IDParam(c, "sessionID")
	if !ok {
		return
	}

	var req BulkStatusRequest
	if !api.BindJSON(c, &req) {
		return
	}

	n, err := h.service.BulkUpdateStatus(c.Request.Context(), id, req.From, req.To)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Updated: n})
}

// hostedSession resolves the session id and lets through its host, its
// creator and admins.
func (h *Handler) hostedSession(c *gin.Context) (int, bool) {
	id, ok := api.IDParam(c, "sessionID")
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

	session, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return 0, false
	}
	if !session.HostedBy(userID) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "only the session host can do this"})
		return 0, false
	}
	return id, true
}
