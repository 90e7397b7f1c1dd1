package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appreport "github.com/orderprofit/backend/internal/application/report"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/report"
)

// Exporter renders profit rows as CSV, optionally storing the file
type Exporter interface {
	Export(ctx context.Context, rows []profit.ProfitedOrder, upload bool) (*appreport.ExportResult, error)
}

// ReportHandler serves profit summaries and CSV exports
type ReportHandler struct {
	BaseHandler
	exporter Exporter
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(exporter Exporter) *ReportHandler {
	return &ReportHandler{exporter: exporter}
}

// Summary handles POST /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	var req RowsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.Success(c, ReportSummaryResponse{
		Monthly: report.Summarize(req.Rows),
		Sources: report.SummarizeBySource(req.Rows),
	})
}

// Export handles POST /api/v1/reports/export?upload=bool.
// Without upload the CSV is the response body; with upload the response
// carries the object key and a presigned download link.
func (h *ReportHandler) Export(c *gin.Context) {
	upload, err := strconv.ParseBool(c.DefaultQuery("upload", "false"))
	if err != nil {
		h.BadRequest(c, "upload must be a boolean")
		return
	}

	var req RowsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), req.Rows, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Uploaded() {
		h.Success(c, result)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
