package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	syncapp "staycal/internal/app/handlers/calendarsync"
	"staycal/internal/app/queries"
	domainsync "staycal/internal/domain/calendarsync"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type syncRequest struct {
	Source  string `json:"source" binding:"required"`
	ICalURL string `json:"ical_url" binding:"required"`
}

func (h CalendarHandler) Sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := syncapp.SyncCalendarCommand{Source: req.Source, ICalURL: req.ICalURL}
	result, err := commands.Dispatch[syncapp.SyncCalendarCommand, domainsync.Result](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncScheduled runs every configured source; per-source failures are reported in the body, not as an error status.
func (h CalendarHandler) SyncScheduled(c *gin.Context) {
	result, err := commands.Dispatch[syncapp.SyncScheduledCommand, dto.ScheduledSyncReport](c.Request.Context(), h.Commands, syncapp.SyncScheduledCommand{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Records(c *gin.Context) {
	result, err := queries.Ask[syncapp.ListSyncRecordsQuery, dto.SyncRecordCollection](c.Request.Context(), h.Queries, syncapp.ListSyncRecordsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
