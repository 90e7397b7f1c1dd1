package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/orderprofit/backend/internal/application/pipeline"
	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
)

// ProfitCalculator computes profit rows
type ProfitCalculator interface {
	Calculate(ctx context.Context, orders []profit.Order, enrichments []profit.EnrichmentResult) ([]profit.ProfitedOrder, error)
	Recalculate(ctx context.Context, rows []profit.ProfitedOrder) ([]profit.ProfitedOrder, error)
}

// PipelineRunner runs search, enrichment and calculation end to end
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ProfitHandler serves profit calculation and pipeline runs
type ProfitHandler struct {
	BaseHandler
	calculator ProfitCalculator
	runner     PipelineRunner
}

// NewProfitHandler creates a ProfitHandler
func NewProfitHandler(calculator ProfitCalculator, runner PipelineRunner) *ProfitHandler {
	return &ProfitHandler{calculator: calculator, runner: runner}
}

// Calculate handles POST /api/v1/profit/calculate
func (h *ProfitHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rows, err := h.calculator.Calculate(c.Request.Context(), req.Orders, req.Enrichments)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Recalculate handles POST /api/v1/profit/recalculate, reapplying the
// current fee overrides to rows computed earlier
func (h *ProfitHandler) Recalculate(c *gin.Context) {
	var req RowsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rows, err := h.calculator.Recalculate(c.Request.Context(), req.Rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Run handles POST /api/v1/profit/run
func (h *ProfitHandler) Run(c *gin.Context) {
	var req RunRequest
	if !h.bindJSON(c, &req) {
		return
	}

	from, to, err := parseRange(req.FromDate, req.ToDate)
	if err != nil {
		h.BadRequest(c, "from_date and to_date must be YYYY-MM-DD or RFC 3339")
		return
	}

	var filters []integration.SearchFilter
	if req.Source != "" {
		filters = append(filters, integration.SearchFilter{Field: integration.SearchFieldSource, Term: req.Source})
	}
	if req.SubSource != "" {
		filters = append(filters, integration.SearchFilter{Field: integration.SearchFieldSubSource, Term: req.SubSource})
	}

	result, err := h.runner.Run(c.Request.Context(), pipeline.Request{
		Credential: credentialFrom(c, req.AuthToken),
		From:       from,
		To:         to,
		Filters:    filters,
		MaxPages:   req.MaxPages,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
