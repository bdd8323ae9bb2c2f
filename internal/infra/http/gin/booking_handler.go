package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	bookingapp "staycal/internal/app/handlers/booking"
	"staycal/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	CheckIn     string `json:"check_in" binding:"required"`
	CheckOut    string `json:"check_out" binding:"required"`
	GuestsCount int    `json:"guests_count"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	GuestPhone  string `json:"guest_phone"`
	Notes       string `json:"notes"`
	Source      string `json:"source"`
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type confirmPaymentRequest struct {
	Method    string `json:"payment_method" binding:"required"`
	Reference string `json:"payment_reference" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := bodyDay("check_in", req.CheckIn)
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := bodyDay("check_out", req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestsCount:     req.GuestsCount,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		Notes:           req.Notes,
		Source:          req.Source,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) List(c *gin.Context) {
	start, end, err := queryRange(c, "start", "end")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := bookingapp.ListBookingsQuery{Start: start, End: end}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.ChangeBookingStatusCommand{BookingID: c.Param("id"), Status: req.Status}
	result, err := commands.Dispatch[bookingapp.ChangeBookingStatusCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmPayment is the payment provider webhook; it records the payment and confirms the stay.
func (h BookingHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.ConfirmPaymentCommand{BookingID: c.Param("id"), Method: req.Method, Reference: req.Reference}
	result, err := commands.Dispatch[bookingapp.ConfirmPaymentCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Delete(c *gin.Context) {
	cmd := bookingapp.DeleteBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.DeleteBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
