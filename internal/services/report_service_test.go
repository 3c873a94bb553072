package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

func TestBuildLowStock(t *testing.T) {
	products := []models.Product{
		{ID: "a", Name: "Fermento", Unit: models.UnitGram, Quantity: 20},
		{ID: "b", Name: "Manteiga", Unit: models.UnitGram, Quantity: 50},
		{ID: "c", Name: "Leite", Unit: models.UnitMilliliter, Quantity: 80},
		{ID: "d", Name: "Farinha", Unit: models.UnitGram, Quantity: 100},
		{ID: "e", Name: "Ovos", Unit: models.UnitPiece, Quantity: 0},
		{ID: "f", Name: "Chocolate", Unit: models.UnitGram, Quantity: 5, MinLevel: ptr(10.0)},
	}

	report := BuildLowStock(products)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Critical)
	assert.Equal(t, 2, report.Warning)
	assert.Equal(t, 1, report.Low)

	byID := map[string]LowStockItem{}
	for _, item := range report.Products {
		byID[item.ID] = item
	}
	assert.NotContains(t, byID, "d")

	tests := []struct {
		id      string
		status  string
		percent int
		needed  float64
	}{
		{"a", StatusCritical, 20, 80},
		{"b", StatusWarning, 50, 50},
		{"c", StatusLow, 80, 20},
		{"e", StatusCritical, 0, 1},
		{"f", StatusWarning, 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			item := byID[tt.id]
			assert.Equal(t, tt.status, item.Status)
			assert.Equal(t, tt.percent, item.Percentage)
			assert.Equal(t, tt.needed, item.Needed)
		})
	}
}

func TestBuildProfitability(t *testing.T) {
	flour := &models.Product{ID: "flour", Name: "Farinha", Quantity: 1000, PricePerGram: ptr(0.005)}
	sugar := &models.Product{ID: "sugar", Name: "Açúcar", Quantity: 500, PricePerGram: ptr(0.004)}
	water := &models.Product{ID: "water", Name: "Água", Unit: models.UnitMilliliter, Quantity: 10000}

	recipes := []models.Recipe{
		{ID: "agua", Name: "Água Gelada", ServingSize: 1, Ingredients: []models.RecipeIngredient{
			{ProductID: water.ID, Product: water, Amount: 200},
		}},
		{ID: "bolo", Name: "Bolo", ServingSize: 8, Ingredients: []models.RecipeIngredient{
			{ProductID: flour.ID, Product: flour, Amount: 300},
			{ProductID: sugar.ID, Product: sugar, Amount: 200},
		}},
	}
	stock := map[string]float64{flour.ID: 1000, sugar.ID: 500, water.ID: 10000}

	report := BuildProfitability(recipes, stock)
	require.Len(t, report.Recipes, 2)

	bolo := report.Recipes[0]
	assert.Equal(t, "bolo", bolo.RecipeID)
	assert.Equal(t, 2.3, bolo.TotalCost)
	assert.Equal(t, 5.75, bolo.EstimatedRevenue)
	assert.Equal(t, 3.45, bolo.Profit)
	assert.Equal(t, 60, bolo.ProfitMargin)
	assert.Equal(t, 0.29, bolo.CostPerServing)
	assert.Equal(t, 2, bolo.PossiblePreparations)
	assert.Equal(t, 2, bolo.IngredientsCount)

	agua := report.Recipes[1]
	assert.Zero(t, agua.TotalCost)
	assert.Zero(t, agua.ProfitMargin)
	assert.Equal(t, 50, agua.PossiblePreparations)

	assert.Equal(t, ProfitSummary{
		TotalRecipes:    2,
		TotalCost:       2.3,
		TotalRevenue:    5.75,
		TotalProfit:     3.45,
		OverallMargin:   60,
		AvgProfitMargin: 30,
	}, report.Summary)
}

func TestBuildProfitabilityPrefersStoredCost(t *testing.T) {
	flour := &models.Product{ID: "flour", PricePerGram: ptr(0.005)}
	recipes := []models.Recipe{{ID: "r", Name: "Pão", TotalCost: 4, Ingredients: []models.RecipeIngredient{
		{ProductID: flour.ID, Product: flour, Amount: 300},
	}}}

	report := BuildProfitability(recipes, map[string]float64{})
	assert.Equal(t, 4.0, report.Recipes[0].TotalCost)
	assert.Equal(t, 10.0, report.Recipes[0].EstimatedRevenue)
	assert.Equal(t, 4.0, report.Recipes[0].CostPerServing)
	assert.Zero(t, report.Recipes[0].PossiblePreparations)
}

func TestBuildAnalytics(t *testing.T) {
	day1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	products := []models.Product{
		{ID: "flour", Name: "Farinha", Unit: models.UnitGram, Quantity: 1000, PricePerGram: ptr(0.005)},
		{ID: "sugar", Name: "Açúcar", Unit: models.UnitGram, Quantity: 150, PricePerGram: ptr(0.004)},
		{ID: "eggs", Name: "Ovos", Unit: models.UnitPiece, Quantity: 3},
		{ID: "butter", Name: "Manteiga", Unit: models.UnitGram, Quantity: 50},
	}
	recipes := []models.Recipe{
		{Name: "Torta", Ingredients: []models.RecipeIngredient{{ProductID: "flour", Amount: 100}}},
		{Name: "Bolo", Ingredients: []models.RecipeIngredient{
			{ProductID: "flour", Amount: 300},
			{ProductID: "sugar", Amount: 200},
		}},
		{Name: "Pudim", Ingredients: []models.RecipeIngredient{{ProductID: "sugar", Amount: 100}}},
	}
	consumptions := []models.Consumption{
		{ProductID: "flour", Amount: 300, Reason: models.PrepareReason("Bolo"), CreatedAt: day1},
		{ProductID: "sugar", Amount: 200, Reason: models.PrepareReason("Bolo"), CreatedAt: day1},
		{ProductID: "flour", Amount: 100, Reason: models.PrepareReason("Torta"), CreatedAt: day1},
		{ProductID: "sugar", Amount: 50, Reason: "ajuste", CreatedAt: day2},
		{ProductID: "deleted", Amount: 999, Reason: models.PrepareReason("Bolo"), CreatedAt: day2},
	}

	a := BuildAnalytics(products, recipes, consumptions)

	require.Len(t, a.SalesData, 2)
	assert.Equal(t, SalesPoint{Date: "2024-06-01", Revenue: 2.8, Orders: 2, Products: 3}, a.SalesData[0])
	assert.Equal(t, SalesPoint{Date: "2024-06-02", Revenue: 0, Orders: 1, Products: 1}, a.SalesData[1])
	assert.Equal(t, 2.8, a.TotalRevenue)
	assert.Equal(t, 3, a.TotalOrders)
	assert.Equal(t, 4, a.TotalProducts)

	require.Len(t, a.RecipePerformance, 2)
	assert.Equal(t, RecipePerformance{Name: "Bolo", Popularity: 30, ProfitMargin: 60}, a.RecipePerformance[0])
	assert.Equal(t, RecipePerformance{Name: "Torta", Popularity: 10, ProfitMargin: 60}, a.RecipePerformance[1])

	status := map[string]string{}
	for _, p := range a.InventoryData {
		status[p.Name] = p.Status
	}
	assert.Equal(t, map[string]string{
		"Farinha":  StatusOK,
		"Açúcar":   StatusWarning,
		"Ovos":     StatusWarning,
		"Manteiga": StatusCritical,
	}, status)

	require.Len(t, a.CostAnalysis, 1)
	assert.Equal(t, 3.0, a.CostAnalysis[0].Amount)
}

func TestAnalyticsRejectsPeriod(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReportService(db, NewRecipeService(db, logger.Nop()).Ledger(), logger.Nop())

	for _, days := range []int{0, -3, 366} {
		_, err := svc.Analytics(context.Background(), days)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), "days=%d", days)
	}

	a, err := svc.Analytics(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, a.SalesData)
	assert.Empty(t, a.RecipePerformance)
}

func TestReportCacheInvalidation(t *testing.T) {
	db := setupTestDB(t)
	cache := NewMemoryCache()
	ctx := context.Background()

	products := NewProductService(db, logger.Nop())
	products.SetCache(cache)
	reports := NewReportService(db, NewRecipeService(db, logger.Nop()).Ledger(), logger.Nop())
	reports.SetCache(cache, time.Minute)

	seedProduct(t, db, "Farinha", models.UnitGram, 1000, 0.005)
	stock, err := reports.Stock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 1)

	seedProduct(t, db, "Sal", models.UnitGram, 10, 0)
	stock, err = reports.Stock(ctx)
	require.NoError(t, err)
	assert.Len(t, stock, 1, "served from cache")

	_, err = products.Create(ctx, ProductInput{Name: "Açúcar"})
	require.NoError(t, err)
	stock, err = reports.Stock(ctx)
	require.NoError(t, err)
	assert.Len(t, stock, 3)
}

func TestReportCapabilityAndHistory(t *testing.T) {
	db := setupTestDB(t)
	b := seedBakery(t, db)
	recipes := NewRecipeService(db, logger.Nop())
	reports := NewReportService(db, recipes.Ledger(), logger.Nop())
	reports.SetCache(nil, 0)
	ctx := context.Background()

	cake, err := recipes.Create(ctx, b.cake())
	require.NoError(t, err)

	rows, err := reports.Capability(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Possible)

	_, err = recipes.Prepare(ctx, cake.ID, 1)
	require.NoError(t, err)

	rows, err = reports.Capability(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rows[0].Possible)

	history, err := reports.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, c := range history {
		assert.Equal(t, models.PrepareReason("Bolo"), c.Reason)
		require.NotNil(t, c.Product)
	}

	history, err = reports.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
