package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	blocksapp "staycal/internal/app/handlers/blocks"
	"staycal/internal/app/queries"
)

type BlockHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBlockRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

func (h BlockHandler) List(c *gin.Context) {
	start, end, err := queryRange(c, "start", "end")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := blocksapp.ListBlocksQuery{Start: start, End: end}
	result, err := queries.Ask[blocksapp.ListBlocksQuery, dto.BlockCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BlockHandler) Create(c *gin.Context) {
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := bodyDay("start_date", req.StartDate)
	if err != nil {
		badRequest(c, err)
		return
	}
	end, err := bodyDay("end_date", req.EndDate)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := blocksapp.CreateBlockCommand{Start: start, End: end, Reason: req.Reason}
	result, err := commands.Dispatch[blocksapp.CreateBlockCommand, *dto.Block](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BlockHandler) Delete(c *gin.Context) {
	cmd := blocksapp.DeleteBlockCommand{BlockID: c.Param("id")}
	result, err := commands.Dispatch[blocksapp.DeleteBlockCommand, *dto.Block](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BlockHTTP = BlockHandler{}
