package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const exportPurchaseLimit = 100

var productExportHeader = []string{"Nome", "Quantidade", "Unidade", "Preço por Grama", "Nível Mínimo"}

// ExportService renders stock data as CSV, XLSX and printable HTML
type ExportService struct {
	db     *gorm.DB
	logger *logger.Logger
	now    func() time.Time
}

func NewExportService(db *gorm.DB, log *logger.Logger) *ExportService {
	return &ExportService{db: db, logger: log, now: time.Now}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (s *ExportService) products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	return products, nil
}

func (s *ExportService) ProductsCSV(ctx context.Context, w io.Writer) error {
	products, err := s.products(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(productExportHeader); err != nil {
		return err
	}
	for _, p := range products {
		if err := cw.Write([]string{
			p.Name,
			formatNumber(p.Quantity),
			p.Unit,
			formatNumber(optional(p.PricePerGram)),
			formatNumber(optional(p.MinLevel)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecipesCSV writes one row per recipe; ingredients are "name (amount unit)"
// joined by "; ".
func (s *ExportService) RecipesCSV(ctx context.Context, w io.Writer) error {
	var recipes []models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).Order("name ASC").Find(&recipes).Error; err != nil {
		return apperr.FromGorm(err, MsgRecipeNotFound)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Nome", "Custo Total", "Porções", "Ingredientes"}); err != nil {
		return err
	}
	for _, r := range recipes {
		parts := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			if ing.Product == nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s (%s%s)", ing.Product.Name, formatNumber(ing.Amount), ing.Product.Unit))
		}
		if err := cw.Write([]string{
			r.Name,
			formatNumber(r.TotalCost),
			strconv.Itoa(r.EffectiveServingSize()),
			strings.Join(parts, "; "),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PurchasesCSV writes the 100 most recent purchases
func (s *ExportService) PurchasesCSV(ctx context.Context, w io.Writer) error {
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).
		Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("purchase_date DESC").
		Limit(exportPurchaseLimit).
		Find(&purchases).Error
	if err != nil {
		return apperr.FromGorm(err, MsgProductNotFound)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Data", "Fornecedor", "Valor Total", "Itens", "Nota Fiscal"}); err != nil {
		return err
	}
	for _, p := range purchases {
		supplier := "N/A"
		if p.Supplier != nil {
			supplier = p.Supplier.Name
		}
		items := make([]string, 0, len(p.Items))
		for _, item := range p.Items {
			if item.Product == nil {
				continue
			}
			items = append(items, fmt.Sprintf("%s (%s%s)", item.Product.Name, formatNumber(item.Quantity), item.Product.Unit))
		}
		if err := cw.Write([]string{
			p.PurchaseDate.UTC().Format("2006-01-02"),
			supplier,
			formatNumber(p.TotalAmount),
			strings.Join(items, "; "),
			p.InvoiceNumber,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ProductsXLSX writes the product list as a workbook with the CSV columns
func (s *ExportService) ProductsXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.products(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Produtos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]interface{}, len(productExportHeader))
	for i, h := range productExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Name, p.Quantity, p.Unit, optional(p.PricePerGram), optional(p.MinLevel)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

var stockReportTemplate = template.Must(template.New("stock").Funcs(template.FuncMap{
	"price": func(p *float64) string { return fmt.Sprintf("R$ %.3f", optional(p)) },
	"num":   formatNumber,
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Relatório de Estoque</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 20px; }
		h1 { color: #333; }
		table { width: 100%; border-collapse: collapse; margin-top: 20px; }
		th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
		th { background-color: #f2f2f2; }
		.low-stock { background-color: #ffebee; }
		.warning { background-color: #fff3e0; }
	</style>
</head>
<body>
	<h1>Relatório de Estoque</h1>
	<p>Data: {{.Date}}</p>
	<h2>Produtos com Estoque Baixo ({{len .Low}})</h2>
	<table>
		<tr><th>Produto</th><th>Quantidade Atual</th><th>Nível Mínimo</th><th>Unidade</th><th>Status</th></tr>
		{{- range .Low}}
		<tr class="{{if eq .Status "critical"}}low-stock{{else}}warning{{end}}">
			<td>{{.Name}}</td><td>{{num .CurrentQuantity}}</td><td>{{num .MinLevel}}</td><td>{{.Unit}}</td><td>{{.Label}}</td>
		</tr>
		{{- end}}
	</table>
	<h2>Todos os Produtos ({{len .Products}})</h2>
	<table>
		<tr><th>Produto</th><th>Quantidade</th><th>Unidade</th><th>Preço/Grama</th></tr>
		{{- range .Products}}
		<tr><td>{{.Name}}</td><td>{{num .Quantity}}</td><td>{{.Unit}}</td><td>{{price .PricePerGram}}</td></tr>
		{{- end}}
	</table>
</body>
</html>
`))

var statusLabels = map[string]string{
	StatusCritical: "Crítico",
	StatusWarning:  "Atenção",
	StatusLow:      "Baixo",
}

type stockReportRow struct {
	LowStockItem
	Label string
}

// StockReportHTML renders a printable stock report
func (s *ExportService) StockReportHTML(ctx context.Context, w io.Writer) error {
	products, err := s.products(ctx)
	if err != nil {
		return err
	}

	low := BuildLowStock(products)
	rows := make([]stockReportRow, 0, len(low.Products))
	for _, item := range low.Products {
		rows = append(rows, stockReportRow{LowStockItem: item, Label: statusLabels[item.Status]})
	}

	return stockReportTemplate.Execute(w, map[string]interface{}{
		"Date":     s.now().Format("02/01/2006"),
		"Low":      rows,
		"Products": products,
	})
}
