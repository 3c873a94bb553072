// Package ledger owns every stock movement caused by preparing recipes.
//
// Prepare validates all ingredient lines and only then applies the decrements and
// audit rows, inside a single unit of work. Capability and Scale are read-only.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/models"
)

// User-facing messages
const (
	MsgInvalidQuantity   = "Quantidade inválida"
	MsgInvalidMultiplier = "Multiplicador deve ser maior que zero"
	MsgRecipeNotFound    = "Receita não encontrada"
	MsgProductNotFound   = "Produto não encontrado"
	MsgInsufficientStock = "Estoque insuficiente"
)

type Ledger struct {
	uow UnitOfWork
}

func New(uow UnitOfWork) *Ledger {
	return &Ledger{uow: uow}
}

// PreparedLine is one applied decrement
type PreparedLine struct {
	ProductID   string
	ProductName string
	Unit        string
	Amount      float64
	Remaining   float64
	MinLevel    float64
}

type PrepareResult struct {
	Prepared   float64        `json:"prepared"`
	RecipeID   string         `json:"-"`
	RecipeName string         `json:"-"`
	Lines      []PreparedLine `json:"-"`
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// needed multiplies in decimal so 0.1 × 3 stays 0.3
func needed(amount, quantity float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(quantity)).InexactFloat64()
}

// Prepare consumes quantity batches of recipeID. It fails with InvalidArgument,
// NotFound, DataIntegrity or InsufficientStock (carrying every shortfall) and in
// all of those cases nothing is written.
func (l *Ledger) Prepare(ctx context.Context, recipeID string, quantity float64) (*PrepareResult, error) {
	if !validAmount(quantity) {
		return nil, apperr.InvalidArgument(MsgInvalidQuantity)
	}

	var result *PrepareResult
	err := l.uow.Transact(ctx, func(tx Store) error {
		recipe, err := tx.FindRecipe(ctx, recipeID)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(MsgRecipeNotFound)
		}
		if err != nil {
			return fmt.Errorf("load recipe %s: %w", recipeID, err)
		}

		products, err := tx.LockProducts(ctx, ingredientProductIDs(recipe.Ingredients))
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		for _, ing := range recipe.Ingredients {
			if _, ok := products[ing.ProductID]; !ok {
				return apperr.DataIntegrity(MsgProductNotFound,
					"recipe %s references missing product %s", recipe.ID, ing.ProductID)
			}
		}

		// remaining tracks stock left after earlier lines, so a product listed twice
		// is checked against its combined need.
		remaining := make(map[string]float64, len(products))
		for id, p := range products {
			remaining[id] = p.Quantity
		}
		var shortfalls []apperr.Shortfall
		lines := make([]PreparedLine, 0, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			p := products[ing.ProductID]
			need := needed(ing.Amount, quantity)
			if remaining[p.ID] < need {
				shortfalls = append(shortfalls, apperr.Shortfall{
					ProductID:   p.ID,
					ProductName: p.Name,
					Needed:      need,
					Available:   remaining[p.ID],
				})
				continue
			}
			remaining[p.ID] -= need
			lines = append(lines, PreparedLine{
				ProductID:   p.ID,
				ProductName: p.Name,
				Unit:        p.Unit,
				Amount:      need,
				Remaining:   remaining[p.ID],
				MinLevel:    p.EffectiveMinLevel(),
			})
		}
		if len(shortfalls) > 0 {
			return apperr.InsufficientStock(MsgInsufficientStock, shortfalls)
		}

		reason := models.PrepareReason(recipe.Name)
		for i := range lines {
			line := &lines[i]
			ok, err := tx.DecrementStock(ctx, line.ProductID, line.Amount)
			if err != nil {
				return fmt.Errorf("decrement %s: %w", line.ProductID, err)
			}
			if !ok {
				// Stock moved between our read and write; report what we saw.
				return apperr.InsufficientStock(MsgInsufficientStock, []apperr.Shortfall{{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Needed:      line.Amount,
					Available:   products[line.ProductID].Quantity,
				}})
			}
			if err := tx.AppendConsumption(ctx, &models.Consumption{
				ProductID: line.ProductID,
				Amount:    line.Amount,
				Reason:    reason,
			}); err != nil {
				return fmt.Errorf("append consumption: %w", err)
			}
		}

		result = &PrepareResult{
			Prepared:   quantity,
			RecipeID:   recipe.ID,
			RecipeName: recipe.Name,
			Lines:      lines,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ingredientProductIDs(ings []models.RecipeIngredient) []string {
	seen := make(map[string]bool, len(ings))
	ids := make([]string, 0, len(ings))
	for _, ing := range ings {
		if !seen[ing.ProductID] {
			seen[ing.ProductID] = true
			ids = append(ids, ing.ProductID)
		}
	}
	return ids
}

// Capability is the number of whole batches of recipe the stock levels allow.
// A recipe without ingredients, a line with a non-positive amount, or a
// missing product all give 0.
func Capability(recipe *models.Recipe, stock map[string]float64) int {
	if len(recipe.Ingredients) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, ing := range recipe.Ingredients {
		possible := math.Floor(stock[ing.ProductID] / ing.Amount)
		if math.IsNaN(possible) || math.IsInf(possible, 0) || possible < 0 {
			possible = 0
		}
		best = math.Min(best, possible)
	}
	if math.IsInf(best, 0) {
		return 0
	}
	if best > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(best)
}

type CapabilityRow struct {
	RecipeID string `json:"recipeId"`
	Name     string `json:"name"`
	Possible int    `json:"possible"`
}

// CapabilityAll computes Capability for every active recipe
func (l *Ledger) CapabilityAll(ctx context.Context) ([]CapabilityRow, error) {
	reader := l.uow.Reader()
	recipes, err := reader.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	var ids []string
	for _, r := range recipes {
		ids = append(ids, ingredientProductIDs(r.Ingredients)...)
	}
	products, err := reader.FindProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	stock := StockLevels(products)

	rows := make([]CapabilityRow, 0, len(recipes))
	for i := range recipes {
		rows = append(rows, CapabilityRow{
			RecipeID: recipes[i].ID,
			Name:     recipes[i].Name,
			Possible: Capability(&recipes[i], stock),
		})
	}
	return rows, nil
}

// StockLevels flattens products into id -> quantity
func StockLevels(products map[string]models.Product) map[string]float64 {
	stock := make(map[string]float64, len(products))
	for id, p := range products {
		stock[id] = p.Quantity
	}
	return stock
}

type ScaledIngredient struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Amount      float64 `json:"amount"`
}

type ScaleResult struct {
	RecipeName          string             `json:"recipeName"`
	Multiplier          float64            `json:"multiplier"`
	OriginalServingSize int                `json:"originalServingSize"`
	NewServingSize      int                `json:"newServingSize"`
	Ingredients         []ScaledIngredient `json:"ingredients"`
	OriginalCost        float64            `json:"originalCost"`
	NewCost             float64            `json:"newCost"`
	CostPerServing      float64            `json:"costPerServing"`
}

// Scale previews recipeID multiplied by multiplier. Stock is neither read for
// validation nor changed.
func (l *Ledger) Scale(ctx context.Context, recipeID string, multiplier float64) (*ScaleResult, error) {
	if !validAmount(multiplier) {
		return nil, apperr.InvalidArgument(MsgInvalidMultiplier)
	}

	recipe, err := l.uow.Reader().FindRecipe(ctx, recipeID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound(MsgRecipeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %s: %w", recipeID, err)
	}
	return ScaleRecipe(recipe, multiplier), nil
}

// ScaleRecipe is the pure part of Scale
func ScaleRecipe(recipe *models.Recipe, multiplier float64) *ScaleResult {
	serving := recipe.EffectiveServingSize()
	m := decimal.NewFromFloat(multiplier)

	ingredients := make([]ScaledIngredient, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		name := ""
		if ing.Product != nil {
			name = ing.Product.Name
		}
		ingredients = append(ingredients, ScaledIngredient{
			ProductID:   ing.ProductID,
			ProductName: name,
			Amount:      decimal.NewFromFloat(ing.Amount).Mul(m).InexactFloat64(),
		})
	}

	base := recipeCost(recipe.Ingredients)
	scaled := base.Mul(m)
	servings := decimal.NewFromInt(int64(serving)).Mul(m)

	return &ScaleResult{
		RecipeName:          recipe.Name,
		Multiplier:          multiplier,
		OriginalServingSize: serving,
		NewServingSize:      int(servings.Round(0).IntPart()),
		Ingredients:         ingredients,
		OriginalCost:        base.Round(costPlaces).InexactFloat64(),
		NewCost:             scaled.Round(costPlaces).InexactFloat64(),
		CostPerServing:      scaled.Div(servings).Round(costPlaces).InexactFloat64(),
	}
}
