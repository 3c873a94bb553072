package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/ledger"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

// RevenueMarkup estimates a recipe's sale price as cost × RevenueMarkup (a 60%
// gross margin). There is no sales data to derive it from.
const RevenueMarkup = 2.5

const (
	MsgInvalidPeriod    = "Período inválido"
	defaultReportTTL    = 60 * time.Second
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	maxAnalyticsDays    = 365
	topRecipes          = 5
)

// Low stock status, by percentage of the reorder threshold
const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
	StatusLow      = "low"
	StatusOK       = "ok"
)

type LowStockItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CurrentQuantity float64 `json:"currentQuantity"`
	MinLevel        float64 `json:"minLevel"`
	Unit            string  `json:"unit"`
	Percentage      int     `json:"percentage"`
	Status          string  `json:"status"`
	Needed          float64 `json:"needed"`
}

type LowStockReport struct {
	Products []LowStockItem `json:"products"`
	Critical int            `json:"critical"`
	Warning  int            `json:"warning"`
	Low      int            `json:"low"`
	Total    int            `json:"total"`
}

type RecipeProfit struct {
	RecipeID             string  `json:"recipeId"`
	RecipeName           string  `json:"recipeName"`
	TotalCost            float64 `json:"totalCost"`
	EstimatedRevenue     float64 `json:"estimatedRevenue"`
	Profit               float64 `json:"profit"`
	ProfitMargin         int     `json:"profitMargin"`
	CostPerServing       float64 `json:"costPerServing"`
	ServingSize          int     `json:"servingSize"`
	PossiblePreparations int     `json:"possiblePreparations"`
	IngredientsCount     int     `json:"ingredientsCount"`
}

type ProfitSummary struct {
	TotalRecipes    int     `json:"totalRecipes"`
	TotalCost       float64 `json:"totalCost"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalProfit     float64 `json:"totalProfit"`
	OverallMargin   int     `json:"overallMargin"`
	AvgProfitMargin int     `json:"avgProfitMargin"`
}

type ProfitabilityReport struct {
	Recipes []RecipeProfit `json:"recipes"`
	Summary ProfitSummary  `json:"summary"`
}

type SalesPoint struct {
	Date     string  `json:"date"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	Products int     `json:"products"`
}

type InventoryPoint struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	MinLevel float64 `json:"minLevel"`
	Status   string  `json:"status"`
}

type RecipePerformance struct {
	Name         string `json:"name"`
	Popularity   int    `json:"popularity"`
	ProfitMargin int    `json:"profitMargin"`
}

type CostCategory struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type Analytics struct {
	SalesData         []SalesPoint        `json:"salesData"`
	InventoryData     []InventoryPoint    `json:"inventoryData"`
	RecipePerformance []RecipePerformance `json:"recipePerformance"`
	CostAnalysis      []CostCategory      `json:"costAnalysis"`
	TotalRevenue      float64             `json:"totalRevenue"`
	TotalOrders       int                 `json:"totalOrders"`
	TotalProducts     int                 `json:"totalProducts"`
}

// ReportService builds read-only stock and profitability views. Results are
// cached for a short TTL and dropped whenever stock changes.
type ReportService struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func NewReportService(db *gorm.DB, l *ledger.Ledger, log *logger.Logger) *ReportService {
	return &ReportService{
		db:     db,
		ledger: l,
		cache:  NewMemoryCache(),
		ttl:    defaultReportTTL,
		logger: log,
		now:    time.Now,
	}
}

func (s *ReportService) SetCache(cache Cache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.ttl = ttl
	}
}

// cached serves key from the cache or builds and stores it. Cache failures are
// logged and the report is built from the database.
func cached[T any](ctx context.Context, s *ReportService, key string, build func() (T, error)) (T, error) {
	var out T
	key = reportCachePrefix + key
	if s.cache != nil {
		found, err := s.cache.GetJSON(ctx, key, &out)
		if err != nil {
			s.logger.Warn("⚠️ Report cache read failed", "key", key, "error", err)
		} else if found {
			return out, nil
		}
	}

	out, err := build()
	if err != nil {
		return out, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, s.ttl); err != nil {
			s.logger.Warn("⚠️ Report cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

// Stock returns live products by name
func (s *ReportService) Stock(ctx context.Context) ([]models.Product, error) {
	return cached(ctx, s, "stock", func() ([]models.Product, error) {
		var products []models.Product
		if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
			return nil, apperr.FromGorm(err, MsgProductNotFound)
		}
		return products, nil
	})
}

func (s *ReportService) Capability(ctx context.Context) ([]ledger.CapabilityRow, error) {
	return cached(ctx, s, "capability", func() ([]ledger.CapabilityRow, error) {
		rows, err := s.ledger.CapabilityAll(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Erro ao calcular capacidade", err)
		}
		return rows, nil
	})
}

// History lists consumptions newest first. limit <= 0 takes the default.
func (s *ReportService) History(ctx context.Context, limit int) ([]models.Consumption, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return cached(ctx, s, fmt.Sprintf("history:%d", limit), func() ([]models.Consumption, error) {
		var history []models.Consumption
		err := s.db.WithContext(ctx).
			Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Order("created_at DESC").
			Limit(limit).
			Find(&history).Error
		if err != nil {
			return nil, apperr.FromGorm(err, MsgProductNotFound)
		}
		return history, nil
	})
}

func (s *ReportService) LowStock(ctx context.Context) (*LowStockReport, error) {
	return cached(ctx, s, "low-stock", func() (*LowStockReport, error) {
		var products []models.Product
		if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
			return nil, apperr.FromGorm(err, MsgProductNotFound)
		}
		return BuildLowStock(products), nil
	})
}

// BuildLowStock classifies products below their threshold: critical under 30%
// of minLevel, warning under 60%, low otherwise.
func BuildLowStock(products []models.Product) *LowStockReport {
	report := &LowStockReport{Products: []LowStockItem{}}
	for i := range products {
		p := &products[i]
		if !p.IsLow() {
			continue
		}
		minLevel := p.EffectiveMinLevel()
		pct := p.Quantity / minLevel * 100

		status := StatusLow
		switch {
		case pct < 30:
			status = StatusCritical
			report.Critical++
		case pct < 60:
			status = StatusWarning
			report.Warning++
		default:
			report.Low++
		}

		report.Products = append(report.Products, LowStockItem{
			ID:              p.ID,
			Name:            p.Name,
			CurrentQuantity: p.Quantity,
			MinLevel:        minLevel,
			Unit:            p.Unit,
			Percentage:      int(math.Round(pct)),
			Status:          status,
			Needed:          math.Max(minLevel-p.Quantity, 0),
		})
	}
	report.Total = len(report.Products)
	return report
}

func (s *ReportService) Profitability(ctx context.Context) (*ProfitabilityReport, error) {
	return cached(ctx, s, "profitability", func() (*ProfitabilityReport, error) {
		recipes, stock, err := s.recipesWithStock(ctx)
		if err != nil {
			return nil, err
		}
		return BuildProfitability(recipes, stock), nil
	})
}

// BuildProfitability prices every recipe at RevenueMarkup. The stored cost is
// used when set, otherwise it is computed from ingredient prices. stock is the
// live product quantities used for possiblePreparations.
func BuildProfitability(recipes []models.Recipe, stock map[string]float64) *ProfitabilityReport {
	report := &ProfitabilityReport{Recipes: make([]RecipeProfit, 0, len(recipes))}
	markup := decimal.NewFromFloat(RevenueMarkup)

	totalCost, totalRevenue := decimal.Zero, decimal.Zero
	marginSum := 0
	for i := range recipes {
		r := &recipes[i]
		cost := decimal.NewFromFloat(r.TotalCost)
		if r.TotalCost == 0 {
			cost = decimal.NewFromFloat(ledger.RecipeCost(r.Ingredients))
		}
		revenue := cost.Mul(markup)
		serving := r.EffectiveServingSize()

		row := RecipeProfit{
			RecipeID:             r.ID,
			RecipeName:           r.Name,
			TotalCost:            money(cost),
			EstimatedRevenue:     money(revenue),
			Profit:               money(revenue.Sub(cost)),
			ProfitMargin:         marginPercent(cost, revenue),
			CostPerServing:       cost.Div(decimal.NewFromInt(int64(serving))).Round(2).InexactFloat64(),
			ServingSize:          serving,
			PossiblePreparations: ledger.Capability(r, stock),
			IngredientsCount:     len(r.Ingredients),
		}
		report.Recipes = append(report.Recipes, row)

		totalCost = totalCost.Add(cost)
		totalRevenue = totalRevenue.Add(revenue)
		marginSum += row.ProfitMargin
	}

	sort.SliceStable(report.Recipes, func(i, j int) bool {
		return report.Recipes[i].ProfitMargin > report.Recipes[j].ProfitMargin
	})

	report.Summary = ProfitSummary{
		TotalRecipes:  len(report.Recipes),
		TotalCost:     money(totalCost),
		TotalRevenue:  money(totalRevenue),
		TotalProfit:   money(totalRevenue.Sub(totalCost)),
		OverallMargin: marginPercent(totalCost, totalRevenue),
	}
	if n := len(report.Recipes); n > 0 {
		report.Summary.AvgProfitMargin = int(math.Round(float64(marginSum) / float64(n)))
	}
	return report
}

// Analytics summarizes preparation activity over the last days days
func (s *ReportService) Analytics(ctx context.Context, days int) (*Analytics, error) {
	if days < 1 || days > maxAnalyticsDays {
		return nil, apperr.InvalidArgument(MsgInvalidPeriod)
	}
	return cached(ctx, s, fmt.Sprintf("analytics:%d", days), func() (*Analytics, error) {
		end := s.now().UTC()
		start := end.AddDate(0, 0, -days)

		var products []models.Product
		if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
			return nil, apperr.FromGorm(err, MsgProductNotFound)
		}
		var recipes []models.Recipe
		if err := s.db.WithContext(ctx).Preload("Ingredients").Order("name ASC").Find(&recipes).Error; err != nil {
			return nil, apperr.FromGorm(err, MsgRecipeNotFound)
		}
		var consumptions []models.Consumption
		err := s.db.WithContext(ctx).
			Where("created_at >= ? AND created_at <= ?", start, end).
			Order("created_at ASC").
			Find(&consumptions).Error
		if err != nil {
			return nil, apperr.FromGorm(err, MsgProductNotFound)
		}
		return BuildAnalytics(products, recipes, consumptions), nil
	})
}

// BuildAnalytics derives sales from "prepare:" consumptions: revenue per day is
// Σ amount × pricePerGram, orders are distinct recipes prepared that day.
// Only live products are priced.
func BuildAnalytics(products []models.Product, recipes []models.Recipe, consumptions []models.Consumption) *Analytics {
	prices := make(map[string]decimal.Decimal, len(products))
	for i := range products {
		if price := products[i].Price(); price > 0 {
			prices[products[i].ID] = decimal.NewFromFloat(price)
		}
	}
	value := func(c models.Consumption) decimal.Decimal {
		price, ok := prices[c.ProductID]
		if !ok {
			return decimal.Zero
		}
		return decimal.NewFromFloat(c.Amount).Mul(price)
	}

	type day struct {
		revenue  decimal.Decimal
		reasons  map[string]bool
		products int
	}
	byDate := map[string]*day{}
	prepared := map[string]int{}
	totalCost := decimal.Zero

	for _, c := range consumptions {
		totalCost = totalCost.Add(value(c))
		if !strings.HasPrefix(c.Reason, models.PrepareReasonPrefix) {
			continue
		}
		date := c.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDate[date]
		if !ok {
			d = &day{reasons: map[string]bool{}}
			byDate[date] = d
		}
		d.revenue = d.revenue.Add(value(c))
		d.reasons[c.Reason] = true
		d.products++
		prepared[c.Reason]++
	}

	out := &Analytics{
		SalesData:         make([]SalesPoint, 0, len(byDate)),
		InventoryData:     make([]InventoryPoint, 0, len(products)),
		RecipePerformance: []RecipePerformance{},
		TotalProducts:     len(products),
	}

	totalRevenue := decimal.Zero
	for date, d := range byDate {
		out.SalesData = append(out.SalesData, SalesPoint{
			Date:     date,
			Revenue:  money(d.revenue),
			Orders:   len(d.reasons),
			Products: d.products,
		})
		totalRevenue = totalRevenue.Add(d.revenue)
		out.TotalOrders += len(d.reasons)
	}
	sort.Slice(out.SalesData, func(i, j int) bool { return out.SalesData[i].Date < out.SalesData[j].Date })
	out.TotalRevenue = money(totalRevenue)

	for i := range products {
		out.InventoryData = append(out.InventoryData, inventoryPoint(&products[i]))
	}

	markup := decimal.NewFromFloat(RevenueMarkup)
	for i := range recipes {
		r := &recipes[i]
		n := prepared[models.PrepareReason(r.Name)]
		if n == 0 {
			continue
		}
		cost := decimal.Zero
		for _, ing := range r.Ingredients {
			if price, ok := prices[ing.ProductID]; ok {
				cost = cost.Add(decimal.NewFromFloat(ing.Amount).Mul(price))
			}
		}
		out.RecipePerformance = append(out.RecipePerformance, RecipePerformance{
			Name:         r.Name,
			Popularity:   min(n*10, 100),
			ProfitMargin: marginPercent(cost, cost.Mul(markup)),
		})
	}
	sort.SliceStable(out.RecipePerformance, func(i, j int) bool {
		return out.RecipePerformance[i].Popularity > out.RecipePerformance[j].Popularity
	})
	if len(out.RecipePerformance) > topRecipes {
		out.RecipePerformance = out.RecipePerformance[:topRecipes]
	}

	out.CostAnalysis = []CostCategory{{Category: "Ingredientes", Amount: money(totalCost), Percentage: 100}}
	return out
}

// inventoryPoint uses fixed thresholds: pieces are critical under 1 and warning
// under 5, everything else critical under 100 and warning under 200.
func inventoryPoint(p *models.Product) InventoryPoint {
	minLevel := models.DefaultMinLevelBulk
	warnAt := minLevel * 2
	if p.Unit == models.UnitPiece {
		minLevel = models.DefaultMinLevelPiece
		warnAt = 5
	}
	status := StatusOK
	switch {
	case p.Quantity < minLevel:
		status = StatusCritical
	case p.Quantity < warnAt:
		status = StatusWarning
	}
	return InventoryPoint{Name: p.Name, Quantity: p.Quantity, MinLevel: minLevel, Status: status}
}

// recipesWithStock loads live recipes with priced ingredients, and the live
// stock levels they draw on.
func (s *ReportService) recipesWithStock(ctx context.Context) ([]models.Recipe, map[string]float64, error) {
	var recipes []models.Recipe
	err := withIngredients(s.db.WithContext(ctx)).Order("name ASC").Find(&recipes).Error
	if err != nil {
		return nil, nil, apperr.FromGorm(err, MsgRecipeNotFound)
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	stock := make(map[string]float64, len(products))
	for _, p := range products {
		stock[p.ID] = p.Quantity
	}
	return recipes, stock, nil
}

func marginPercent(cost, revenue decimal.Decimal) int {
	if !cost.IsPositive() || !revenue.IsPositive() {
		return 0
	}
	pct := revenue.Sub(cost).Div(revenue).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

func money(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
