package services

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/ledger"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	MsgRecipeNotFound     = "Receita não encontrada"
	MsgNameRequired       = "Nome é obrigatório"
	MsgInvalidIngredient  = "Cada ingrediente precisa de um produto e quantidade maior que zero"
	MsgInvalidServingSize = "Porções deve ser um número positivo"
)

// RecipeInput is the create payload
type RecipeInput struct {
	Name         string                   `json:"name"`
	ServingSize  int                      `json:"servingSize"`
	Instructions string                   `json:"instructions"`
	Ingredients  []models.IngredientInput `json:"ingredients"`
}

// RecipeService manages recipes and routes preparation through the stock ledger
type RecipeService struct {
	db        *gorm.DB
	ledger    *ledger.Ledger
	publisher events.Publisher
	cache     Cache
	logger    *logger.Logger
}

func NewRecipeService(db *gorm.DB, log *logger.Logger) *RecipeService {
	return &RecipeService{
		db:        db,
		ledger:    ledger.New(ledger.NewGormUnitOfWork(db)),
		publisher: events.Discard{},
		cache:     NewMemoryCache(),
		logger:    log,
	}
}

func (s *RecipeService) SetPublisher(p events.Publisher) {
	s.publisher = p
}

func (s *RecipeService) SetCache(cache Cache) {
	s.cache = cache
}

// Ledger exposes the stock ledger for read-only reports
func (s *RecipeService) Ledger() *ledger.Ledger {
	return s.ledger
}

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients").
		Preload("Ingredients.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

// List returns live recipes by name. A stored cost of 0 is recomputed and saved
// when the ingredients can be priced.
func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).Order("name ASC").Find(&recipes).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgRecipeNotFound)
	}
	for i := range recipes {
		s.backfillCost(ctx, &recipes[i])
	}
	return recipes, nil
}

func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgRecipeNotFound)
	}
	s.backfillCost(ctx, &recipe)
	return &recipe, nil
}

func (s *RecipeService) backfillCost(ctx context.Context, recipe *models.Recipe) {
	if recipe.TotalCost != 0 {
		return
	}
	cost := ledger.RecipeCost(recipe.Ingredients)
	if cost <= 0 {
		return
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", recipe.ID).
		UpdateColumn("total_cost", cost).Error
	if err != nil {
		s.logger.Warn("⚠️ Failed to backfill recipe cost", "recipe_id", recipe.ID, "error", err)
		return
	}
	recipe.TotalCost = cost
}

// Create stores a recipe and its cost at current prices
func (s *RecipeService) Create(ctx context.Context, in RecipeInput) (*models.Recipe, error) {
	return s.create(ctx, in, 0)
}

// CreateWithCost stores a recipe with a known cost. A cost of 0 falls back to
// pricing the ingredients.
func (s *RecipeService) CreateWithCost(ctx context.Context, in RecipeInput, cost float64) (*models.Recipe, error) {
	return s.create(ctx, in, cost)
}

func (s *RecipeService) create(ctx context.Context, in RecipeInput, cost float64) (*models.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidArgument(MsgNameRequired)
	}
	if in.ServingSize < 0 {
		return nil, apperr.InvalidArgument(MsgInvalidServingSize)
	}
	if err := validateIngredients(in.Ingredients); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:         name,
		ServingSize:  in.ServingSize,
		Instructions: in.Instructions,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prices, err := ingredientPrices(tx, in.Ingredients)
		if err != nil {
			return err
		}
		recipe.TotalCost = cost
		if recipe.TotalCost <= 0 {
			recipe.TotalCost = ledger.CostFromPrices(in.Ingredients, prices)
		}
		recipe.Ingredients = toIngredients(in.Ingredients)
		return tx.Create(&recipe).Error
	})
	if err != nil {
		return nil, apperr.FromGorm(err, MsgRecipeNotFound)
	}

	s.logger.Info("✅ Recipe created", "id", recipe.ID, "name", recipe.Name,
		"ingredients", len(recipe.Ingredients), "total_cost", recipe.TotalCost)
	invalidateReports(ctx, s.cache, s.logger)
	return s.Get(ctx, recipe.ID)
}

// Update merges patch into recipe id. A non-nil ingredient list replaces the
// current one and the cost is recomputed, all in one transaction.
func (s *RecipeService) Update(ctx context.Context, id string, patch models.RecipePatch) (*models.Recipe, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ?", id).Error; err != nil {
			return apperr.FromGorm(err, MsgRecipeNotFound)
		}

		patch.Apply(&recipe)
		recipe.Name = strings.TrimSpace(recipe.Name)
		if recipe.Name == "" {
			return apperr.InvalidArgument(MsgNameRequired)
		}
		if recipe.ServingSize < 0 {
			return apperr.InvalidArgument(MsgInvalidServingSize)
		}
		if recipe.ServingSize == 0 {
			recipe.ServingSize = 1
		}

		if patch.Ingredients != nil {
			lines := *patch.Ingredients
			if err := validateIngredients(lines); err != nil {
				return err
			}
			prices, err := ingredientPrices(tx, lines)
			if err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			ings := toIngredients(lines)
			for i := range ings {
				ings[i].RecipeID = recipe.ID
			}
			if len(ings) > 0 {
				if err := tx.Create(&ings).Error; err != nil {
					return err
				}
			}
			recipe.TotalCost = ledger.CostFromPrices(lines, prices)
		}

		return tx.Omit("Ingredients").Save(&recipe).Error
	})
	if err != nil {
		return nil, apperr.FromGorm(err, MsgRecipeNotFound)
	}

	s.logger.Info("✅ Recipe updated", "id", id, "ingredients_replaced", patch.Ingredients != nil)
	invalidateReports(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// Delete soft-deletes a recipe
func (s *RecipeService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return apperr.FromGorm(res.Error, MsgRecipeNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(MsgRecipeNotFound)
	}

	s.logger.Info("🗑️ Recipe deleted", "id", id)
	invalidateReports(ctx, s.cache, s.logger)
	return nil
}

// Prepare consumes quantity batches of recipe id and announces the new stock
// levels. Errors come straight from the ledger.
func (s *RecipeService) Prepare(ctx context.Context, id string, quantity float64) (*ledger.PrepareResult, error) {
	result, err := s.ledger.Prepare(ctx, id, quantity)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("❌ Recipe preparation failed", "recipe_id", id, "quantity", quantity, "error", err)
		}
		return nil, err
	}

	s.logger.Info("🍰 Recipe prepared", "recipe_id", result.RecipeID, "recipe", result.RecipeName,
		"quantity", quantity, "lines", len(result.Lines))
	invalidateReports(ctx, s.cache, s.logger)
	s.announcePrepared(ctx, result)
	return result, nil
}

func (s *RecipeService) announcePrepared(ctx context.Context, result *ledger.PrepareResult) {
	consumed := make([]map[string]interface{}, 0, len(result.Lines))
	for _, line := range result.Lines {
		consumed = append(consumed, map[string]interface{}{
			"productId":   line.ProductID,
			"productName": line.ProductName,
			"amount":      line.Amount,
			"remaining":   line.Remaining,
			"unit":        line.Unit,
		})
	}
	s.publisher.Publish(ctx, events.NewEvent(events.RecipePrepared, map[string]interface{}{
		"recipeId":   result.RecipeID,
		"recipeName": result.RecipeName,
		"quantity":   result.Prepared,
		"consumed":   consumed,
	}))

	for _, line := range result.Lines {
		if line.Remaining >= line.MinLevel {
			continue
		}
		s.publisher.Publish(ctx, events.NewEvent(events.StockLow, map[string]interface{}{
			"productId":   line.ProductID,
			"productName": line.ProductName,
			"quantity":    line.Remaining,
			"minLevel":    line.MinLevel,
			"unit":        line.Unit,
		}))
	}
}

// Scale previews recipe id multiplied by multiplier without touching stock
func (s *RecipeService) Scale(ctx context.Context, id string, multiplier float64) (*ledger.ScaleResult, error) {
	return s.ledger.Scale(ctx, id, multiplier)
}

func validateIngredients(lines []models.IngredientInput) error {
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" || !(line.Amount > 0) || math.IsInf(line.Amount, 0) {
			return apperr.InvalidArgument(MsgInvalidIngredient)
		}
	}
	return nil
}

// ingredientPrices loads the live products behind lines and fails with NotFound
// when one of them does not exist.
func ingredientPrices(tx *gorm.DB, lines []models.IngredientInput) (map[string]float64, error) {
	if len(lines) == 0 {
		return map[string]float64{}, nil
	}
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(products))
	for i := range products {
		prices[products[i].ID] = products[i].Price()
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
	}
	return prices, nil
}

func toIngredients(lines []models.IngredientInput) []models.RecipeIngredient {
	ings := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		ings = append(ings, models.RecipeIngredient{ProductID: line.ProductID, Amount: line.Amount})
	}
	return ings
}
