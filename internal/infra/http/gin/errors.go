package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/handlers/availability"
	"staycal/internal/app/handlers/maintenance"
	"staycal/internal/app/middleware"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/infra/obs"
	"staycal/internal/infra/validation"
)

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) int {
	var fetchErr *domainsync.FetchError
	switch {
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, availability.ErrRangeTooLong),
		errors.Is(err, maintenance.ErrUnknownAction),
		errors.Is(err, domainsync.ErrInvalidSource),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrInvalidStatus),
		errors.Is(err, domainbooking.ErrInvalidSource),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrGuestRequired):
		return http.StatusBadRequest
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainblocks.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainavailability.ErrDateUnavailable),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, uow.ErrConcurrentUpdate),
		errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, commands.ErrNilBus), errors.Is(err, queries.ErrNilBus):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "path", c.FullPath(), "request_id", obs.RequestIDFromContext(c.Request.Context()), "error", err)
	}
	body := gin.H{"error": publicMessage(err)}
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.JSON(status, body)
}

// publicMessage keeps the conflict text exactly as the resolver renders it.
func publicMessage(err error) string {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
