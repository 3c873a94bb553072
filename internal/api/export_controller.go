package api

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportController streams downloadable reports. Output is buffered so a
// failure can still be answered with an error status.
type ExportController struct {
	exportService *services.ExportService
	logger        *logger.Logger
}

func NewExportController(exportService *services.ExportService, log *logger.Logger) *ExportController {
	return &ExportController{exportService: exportService, logger: log}
}

func (ec *ExportController) send(c *gin.Context, contentType, filename string, render func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := render(c.Request.Context(), &buf); err != nil {
		RespondError(c, ec.logger, err)
		return
	}
	if filename != "" {
		c.Header("Content-Disposition", "attachment; filename="+filename)
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GET /exports/products/csv
func (ec *ExportController) ProductsCSV(c *gin.Context) {
	ec.send(c, contentTypeCSV, "produtos.csv", ec.exportService.ProductsCSV)
}

// GET /exports/products/xlsx
func (ec *ExportController) ProductsXLSX(c *gin.Context) {
	ec.send(c, contentTypeXLSX, "produtos.xlsx", ec.exportService.ProductsXLSX)
}

// GET /exports/recipes/csv
func (ec *ExportController) RecipesCSV(c *gin.Context) {
	ec.send(c, contentTypeCSV, "receitas.csv", ec.exportService.RecipesCSV)
}

// GET /exports/purchases/csv
func (ec *ExportController) PurchasesCSV(c *gin.Context) {
	ec.send(c, contentTypeCSV, "compras.csv", ec.exportService.PurchasesCSV)
}

// GET /exports/stock-report/pdf
//
// Renders printable HTML; the browser does the PDF conversion.
func (ec *ExportController) StockReport(c *gin.Context) {
	ec.send(c, contentTypeHTML, "", ec.exportService.StockReportHTML)
}
