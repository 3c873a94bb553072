package assistant

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	defaultRecipeName   = "Receita Gerada"
	defaultInstructions = "Siga as instruções padrão para este tipo de receita."
)

var errNoJSON = errors.New("response does not contain a JSON object")

// extractJSON returns the JSON object inside a model reply. Models like to wrap
// it in ``` fences or prose, so after a direct parse fails the outermost {...}
// span is tried.
func extractJSON(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if json.Valid([]byte(content)) {
		return []byte(content), nil
	}

	cleaned := content
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, errNoJSON
	}
	span := []byte(cleaned[start : end+1])
	if !json.Valid(span) {
		return nil, errNoJSON
	}
	return span, nil
}

// number accepts 200, 200.5 and "200" alike
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = number(v)
	return nil
}

type rawIngredient struct {
	ProductName string `json:"productName"`
	Name        string `json:"name"`
	Amount      number `json:"amount"`
	Unit        string `json:"unit"`
}

type rawRecipe struct {
	Name          string          `json:"name"`
	Ingredients   []rawIngredient `json:"ingredients"`
	Instructions  string          `json:"instructions"`
	EstimatedCost number          `json:"estimatedCost"`
}

func parseRecipe(content string, products []Product) (*Recipe, error) {
	data, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var raw rawRecipe
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return normalize(raw, products), nil
}

func normalize(raw rawRecipe, products []Product) *Recipe {
	out := &Recipe{
		Name:          strings.TrimSpace(raw.Name),
		Instructions:  strings.TrimSpace(raw.Instructions),
		EstimatedCost: float64(raw.EstimatedCost),
	}
	if out.Name == "" {
		out.Name = defaultRecipeName
	}
	if out.Instructions == "" {
		out.Instructions = defaultInstructions
	}

	for _, ing := range raw.Ingredients {
		name := ing.ProductName
		if name == "" {
			name = ing.Name
		}
		unit := models.NormalizeUnit(ing.Unit)
		out.Ingredients = append(out.Ingredients, Ingredient{
			ProductName: name,
			Amount:      float64(ing.Amount),
			Unit:        unit,
		})
	}

	if out.EstimatedCost == 0 {
		out.EstimatedCost = estimateCost(out.Ingredients, products)
	}
	out.EstimatedCost = decimal.NewFromFloat(out.EstimatedCost).Round(2).InexactFloat64()
	return out
}

// estimateCost prices ingredients by exact (case-insensitive) product name,
// converting kg and mg to grams first.
func estimateCost(ings []Ingredient, products []Product) float64 {
	prices := make(map[string]float64, len(products))
	for _, p := range products {
		prices[strings.ToLower(p.Name)] = p.PricePerGram
	}

	total := decimal.Zero
	for _, ing := range ings {
		price := prices[strings.ToLower(ing.ProductName)]
		if price == 0 {
			continue
		}
		total = total.Add(toGrams(ing.Amount, ing.Unit).Mul(decimal.NewFromFloat(price)))
	}
	return total.Round(2).InexactFloat64()
}

func toGrams(amount float64, unit string) decimal.Decimal {
	d := decimal.NewFromFloat(amount)
	switch unit {
	case models.UnitKilogram:
		return d.Mul(decimal.NewFromInt(1000))
	case models.UnitMilligram:
		return d.Div(decimal.NewFromInt(1000))
	default:
		return d
	}
}
