package janitor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtside/internal/api"
)

type Handler struct {
	janitor *Janitor
}

func NewHandler(j *Janitor) *Handler {
	return &Handler{janitor: j}
}

type SweepResponse struct {
	Cancelled int `json:"cancelled"`
}

// @Summary      Cancel overdue game sessions now
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} janitor.SweepResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/sessions/sweep [post]
func (h *Handler) Sweep(c *gin.Context) {
	n, err := h.janitor.SweepOnce(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SweepResponse{Cancelled: n})
}
