package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/handlers/maintenance"
)

type MaintenanceHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type cleanupRequest struct {
	Action string `json:"action" binding:"required"`
	Source string `json:"source"`
}

func (h MaintenanceHandler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := maintenance.CleanupCommand{Action: req.Action, Source: req.Source}
	result, err := commands.Dispatch[maintenance.CleanupCommand, dto.CleanupResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MaintenanceHTTP = MaintenanceHandler{}
