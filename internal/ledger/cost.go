package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/lchampz/saas-bakery/internal/models"
)

// costPlaces is the precision recipe costs are stored with
const costPlaces = 4

func recipeCost(ings []models.RecipeIngredient) decimal.Decimal {
	total := decimal.Zero
	for _, ing := range ings {
		price := ing.Product.Price()
		if price == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(ing.Amount).Mul(decimal.NewFromFloat(price)))
	}
	return total
}

// RecipeCost is Σ amount × pricePerGram over ings. Ingredients whose product is
// missing or has no price contribute nothing.
func RecipeCost(ings []models.RecipeIngredient) float64 {
	return recipeCost(ings).Round(costPlaces).InexactFloat64()
}

// CostFromPrices prices ingredient lines that are not persisted yet
func CostFromPrices(lines []models.IngredientInput, prices map[string]float64) float64 {
	total := decimal.Zero
	for _, line := range lines {
		price, ok := prices[line.ProductID]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(line.Amount).Mul(decimal.NewFromFloat(price)))
	}
	return total.Round(costPlaces).InexactFloat64()
}
