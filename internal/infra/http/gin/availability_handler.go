package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/dto"
	availabilityapp "staycal/internal/app/handlers/availability"
	"staycal/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Calendar answers GET /availability?start=&end= with one entry per night.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	start, end, err := queryRange(c, "start", "end")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.GetAvailabilityQuery{Start: start, End: end}
	days, err := queries.Ask[availabilityapp.GetAvailabilityQuery, []dto.AvailabilityDay](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	checkIn, checkOut, err := queryRange(c, "check_in", "check_out")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.QuoteStayQuery{CheckIn: checkIn, CheckOut: checkOut}
	quote, err := queries.Ask[availabilityapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
