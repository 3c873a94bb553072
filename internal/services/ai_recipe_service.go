package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/assistant"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	MsgDescriptionRequired = "Descrição da receita é obrigatória"
	MsgNameAndIngredients  = "Nome e ingredientes são obrigatórios"
)

// RecipeGenerator drafts a recipe; *assistant.Assistant is the production one
type RecipeGenerator interface {
	Generate(ctx context.Context, req assistant.Request) *assistant.Recipe
}

type GenerateInput struct {
	Description         string   `json:"description"`
	AvailableProducts   []string `json:"availableProducts"`
	ServingSize         int      `json:"servingSize"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

type GeneratedIngredient struct {
	ProductID   string  `json:"productId"`
	Amount      float64 `json:"amount"`
	ProductName string  `json:"productName"`
	Unit        string  `json:"unit"`
}

type GeneratedRecipe struct {
	Name          string                `json:"name"`
	Ingredients   []GeneratedIngredient `json:"ingredients"`
	Instructions  string                `json:"instructions"`
	EstimatedCost float64               `json:"estimatedCost"`
	ServingSize   int                   `json:"servingSize"`
}

type AICreateInput struct {
	Name          string                   `json:"name"`
	Ingredients   []models.IngredientInput `json:"ingredients"`
	Instructions  string                   `json:"instructions"`
	ServingSize   int                      `json:"servingSize"`
	EstimatedCost float64                  `json:"estimatedCost"`
}

// AIRecipeService turns assistant drafts into recipes over real stock items
type AIRecipeService struct {
	db        *gorm.DB
	generator RecipeGenerator
	recipes   *RecipeService
	logger    *logger.Logger
}

func NewAIRecipeService(db *gorm.DB, generator RecipeGenerator, recipes *RecipeService, log *logger.Logger) *AIRecipeService {
	return &AIRecipeService{db: db, generator: generator, recipes: recipes, logger: log}
}

// Generate drafts a recipe from in.Description and maps every ingredient back to
// a live product. Ingredients that match nothing are dropped.
func (s *AIRecipeService) Generate(ctx context.Context, in GenerateInput) (*GeneratedRecipe, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.InvalidArgument(MsgDescriptionRequired)
	}
	serving := in.ServingSize
	if serving <= 0 {
		serving = 1
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	products = filterProducts(products, in.AvailableProducts)

	req := assistant.Request{
		Description:         in.Description,
		ServingSize:         serving,
		DietaryRestrictions: in.DietaryRestrictions,
		Products:            make([]assistant.Product, 0, len(products)),
	}
	for _, p := range products {
		req.Products = append(req.Products, assistant.Product{Name: p.Name, Unit: p.Unit, PricePerGram: p.Price()})
	}

	draft := s.generator.Generate(ctx, req)

	out := &GeneratedRecipe{
		Name:          draft.Name,
		Ingredients:   []GeneratedIngredient{},
		Instructions:  draft.Instructions,
		EstimatedCost: draft.EstimatedCost,
		ServingSize:   serving,
	}
	for _, ing := range draft.Ingredients {
		p := matchProduct(products, ing.ProductName)
		if p == nil {
			s.logger.Warn("⚠️ Generated ingredient has no matching product", "ingredient", ing.ProductName)
			continue
		}
		unit := ing.Unit
		if unit == "" {
			unit = p.Unit
		}
		out.Ingredients = append(out.Ingredients, GeneratedIngredient{
			ProductID:   p.ID,
			Amount:      ing.Amount,
			ProductName: p.Name,
			Unit:        unit,
		})
	}

	s.logger.Info("🤖 Recipe drafted", "name", out.Name,
		"ingredients", len(out.Ingredients), "dropped", len(draft.Ingredients)-len(out.Ingredients))
	return out, nil
}

// Create stores a reviewed draft. The draft's estimated cost is kept when set.
func (s *AIRecipeService) Create(ctx context.Context, in AICreateInput) (*models.Recipe, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.Ingredients) == 0 {
		return nil, apperr.InvalidArgument(MsgNameAndIngredients)
	}
	return s.recipes.CreateWithCost(ctx, RecipeInput{
		Name:         in.Name,
		ServingSize:  in.ServingSize,
		Instructions: in.Instructions,
		Ingredients:  in.Ingredients,
	}, in.EstimatedCost)
}

// filterProducts keeps products whose name contains any of names, ignoring
// case. An empty filter keeps everything.
func filterProducts(products []models.Product, names []string) []models.Product {
	if len(names) == 0 {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		lower := strings.ToLower(p.Name)
		for _, n := range names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(lower, n) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// matchProduct finds name among products: exact (case-insensitive) first, then
// the first product whose name contains name or is contained in it.
func matchProduct(products []models.Product, name string) *models.Product {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	for i := range products {
		if strings.ToLower(products[i].Name) == name {
			return &products[i]
		}
	}
	for i := range products {
		lower := strings.ToLower(products[i].Name)
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			return &products[i]
		}
	}
	return nil
}
