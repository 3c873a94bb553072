package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const defaultAnalyticsDays = 30

// ReportController serves read-only stock and profitability reports. The first
// three endpoints answer with bare arrays.
type ReportController struct {
	reportService *services.ReportService
	logger        *logger.Logger
}

func NewReportController(reportService *services.ReportService, log *logger.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: log}
}

// GET /reports/stock
func (rc *ReportController) GetStock(c *gin.Context) {
	products, err := rc.reportService.Stock(c.Request.Context())
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /reports/capability
func (rc *ReportController) GetCapability(c *gin.Context) {
	rows, err := rc.reportService.Capability(c.Request.Context())
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /reports/history?limit=100
func (rc *ReportController) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := rc.reportService.History(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GET /reports/low-stock
func (rc *ReportController) GetLowStock(c *gin.Context) {
	report, err := rc.reportService.LowStock(c.Request.Context())
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

// GET /reports/profitability
func (rc *ReportController) GetProfitability(c *gin.Context) {
	report, err := rc.reportService.Profitability(c.Request.Context())
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

// GET /reports/analytics?days=30
func (rc *ReportController) GetAnalytics(c *gin.Context) {
	days := defaultAnalyticsDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, services.MsgInvalidPeriod)
			return
		}
		days = n
	}

	analytics, err := rc.reportService.Analytics(c.Request.Context(), days)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	respondData(c, http.StatusOK, analytics)
}
