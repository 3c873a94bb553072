package assistant

import (
	"fmt"
	"strings"

	"github.com/lchampz/saas-bakery/internal/models"
)

const fallbackProducts = 5

// Per-position amounts used when no model is available
var (
	fallbackPieces = []float64{3, 2, 2, 1, 1}
	fallbackKilos  = []float64{0.5, 0.4, 0.3, 0.2, 0.1}
	fallbackGrams  = []float64{250, 200, 150, 100, 50}
)

// fallback builds a recipe without a model. The output depends only on req.
func fallback(req Request) *Recipe {
	name := strings.Join(firstWords(req.Description, 3), " ")
	if name == "" {
		name = defaultRecipeName
	}

	products := req.Products
	if len(products) > fallbackProducts {
		products = products[:fallbackProducts]
	}

	out := &Recipe{Name: name}
	for i, p := range products {
		unit := models.NormalizeUnit(p.Unit)
		var amount float64
		switch unit {
		case models.UnitPiece:
			amount = fallbackPieces[i]
		case models.UnitKilogram:
			amount = fallbackKilos[i]
		default:
			amount = fallbackGrams[i]
		}
		out.Ingredients = append(out.Ingredients, Ingredient{
			ProductName: p.Name,
			Amount:      amount,
			Unit:        unit,
		})
	}

	out.Instructions = strings.Join([]string{
		"1. Prepare todos os ingredientes listados",
		"2. Misture os ingredientes secos primeiro",
		"3. Adicione os ingredientes líquidos gradualmente",
		"4. Misture até obter consistência homogênea",
		"5. Siga as instruções específicas para: " + strings.TrimSpace(req.Description),
		fmt.Sprintf("6. Ajuste as quantidades conforme necessário para %d porção(ões)", req.servingSize()),
	}, "\n")
	out.EstimatedCost = estimateCost(out.Ingredients, req.Products)
	return out
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}
