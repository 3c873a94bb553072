package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/assistant"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

type fakeGenerator struct {
	draft *assistant.Recipe
	got   assistant.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req assistant.Request) *assistant.Recipe {
	g.got = req
	return g.draft
}

func TestAIGenerateMapsIngredientsToProducts(t *testing.T) {
	db := setupTestDB(t)
	flour := seedProduct(t, db, "Farinha de Trigo", models.UnitGram, 1000, 0.005)
	sugar := seedProduct(t, db, "Açúcar Refinado", models.UnitGram, 500, 0.004)
	eggs := seedProduct(t, db, "Ovos", models.UnitPiece, 12, 0)

	gen := &fakeGenerator{draft: &assistant.Recipe{
		Name:         "Bolo Simples",
		Instructions: "Misture e asse.",
		Ingredients: []assistant.Ingredient{
			{ProductName: "farinha de trigo", Amount: 300, Unit: "g"},
			{ProductName: "Açúcar", Amount: 200},
			{ProductName: "Ovos caipira", Amount: 3, Unit: "un"},
			{ProductName: "Chocolate", Amount: 100, Unit: "g"},
		},
		EstimatedCost: 2.3,
	}}
	svc := NewAIRecipeService(db, gen, NewRecipeService(db, logger.Nop()), logger.Nop())

	out, err := svc.Generate(context.Background(), GenerateInput{Description: "bolo fofinho", ServingSize: 8})
	require.NoError(t, err)
	assert.Equal(t, "Bolo Simples", out.Name)
	assert.Equal(t, 8, out.ServingSize)
	assert.Equal(t, 2.3, out.EstimatedCost)
	assert.Len(t, gen.got.Products, 3)
	assert.Equal(t, 8, gen.got.ServingSize)

	assert.Equal(t, []GeneratedIngredient{
		{ProductID: flour.ID, Amount: 300, ProductName: "Farinha de Trigo", Unit: "g"},
		{ProductID: sugar.ID, Amount: 200, ProductName: "Açúcar Refinado", Unit: models.UnitGram},
		{ProductID: eggs.ID, Amount: 3, ProductName: "Ovos", Unit: "un"},
	}, out.Ingredients)
}

func TestAIGenerateFiltersAvailableProducts(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "Farinha de Trigo", models.UnitGram, 1000, 0.005)
	seedProduct(t, db, "Ovos", models.UnitPiece, 12, 0)

	gen := &fakeGenerator{draft: &assistant.Recipe{Name: "Pão"}}
	svc := NewAIRecipeService(db, gen, NewRecipeService(db, logger.Nop()), logger.Nop())

	out, err := svc.Generate(context.Background(), GenerateInput{
		Description:       "pão",
		AvailableProducts: []string{" FARINHA "},
	})
	require.NoError(t, err)
	require.Len(t, gen.got.Products, 1)
	assert.Equal(t, "Farinha de Trigo", gen.got.Products[0].Name)
	assert.Equal(t, 0.005, gen.got.Products[0].PricePerGram)
	assert.Equal(t, 1, out.ServingSize)
	assert.NotNil(t, out.Ingredients)

	_, err = svc.Generate(context.Background(), GenerateInput{Description: "  "})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestAIGenerateWithFallbackAssistant(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "Farinha", models.UnitGram, 1000, 0.005)

	gen := assistant.New(assistant.Config{}, logger.Nop())
	svc := NewAIRecipeService(db, gen, NewRecipeService(db, logger.Nop()), logger.Nop())

	out, err := svc.Generate(context.Background(), GenerateInput{Description: "bolo de chocolate"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Name)
	for _, ing := range out.Ingredients {
		assert.NotEmpty(t, ing.ProductID)
	}
}

func TestAICreate(t *testing.T) {
	db := setupTestDB(t)
	b := seedBakery(t, db)
	svc := NewAIRecipeService(db, &fakeGenerator{}, NewRecipeService(db, logger.Nop()), logger.Nop())
	ctx := context.Background()
	lines := b.cake().Ingredients

	recipe, err := svc.Create(ctx, AICreateInput{Name: "Bolo IA", Ingredients: lines, ServingSize: 8, EstimatedCost: 10})
	require.NoError(t, err)
	assert.Equal(t, 10.0, recipe.TotalCost)
	assert.Len(t, recipe.Ingredients, 2)

	recipe, err = svc.Create(ctx, AICreateInput{Name: "Bolo IA 2", Ingredients: lines})
	require.NoError(t, err)
	assert.InDelta(t, 2.3, recipe.TotalCost, 1e-9)

	_, err = svc.Create(ctx, AICreateInput{Name: "Sem ingredientes"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, MsgNameAndIngredients, err.Error())
}
