package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/config"
	"github.com/lchampz/saas-bakery/internal/database"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
)

type seedProduct struct {
	Name         string
	Quantity     float64
	PricePerGram float64
}

type seedRecipe struct {
	Name        string
	ServingSize int
	Ingredients map[string]float64
}

var seedUsers = []models.DefaultAccount{
	{Email: "admin@fratelli.com", Password: "admin123", Role: models.RoleAdmin},
	{Email: "gerente@fratelli.com", Password: "gerente123", Role: models.RoleManager},
	{Email: "confeiteiro@fratelli.com", Password: "confeiteiro123", Role: models.RoleBaker},
	{Email: "teste@fratelli.com", Password: "teste123", Role: models.RoleUser},
	{Email: "maria.silva@fratelli.com", Password: "maria123", Role: models.RoleBaker},
	{Email: "joao.santos@fratelli.com", Password: "joao123", Role: models.RoleBaker},
}

// market prices in R$/g
var seedProducts = []seedProduct{
	{"Farinha de Trigo", 50000, 0.0035},
	{"Farinha de Amêndoas", 5000, 0.045},
	{"Amido de Milho", 8000, 0.004},
	{"Açúcar Refinado", 30000, 0.0042},
	{"Açúcar de Confeiteiro", 10000, 0.006},
	{"Mel", 8000, 0.012},
	{"Manteiga", 15000, 0.032},
	{"Leite", 40000, 0.003},
	{"Leite Condensado", 20000, 0.008},
	{"Creme de Leite", 15000, 0.012},
	{"Queijo Cream Cheese", 8000, 0.028},
	{"Ovos", 500, 0.008},
	{"Chocolate em Pó", 12000, 0.018},
	{"Cacau em Pó", 8000, 0.025},
	{"Chocolate Meio Amargo", 10000, 0.035},
	{"Chocolate Branco", 6000, 0.030},
	{"Amêndoas", 8000, 0.042},
	{"Avelãs", 5000, 0.055},
	{"Nozes", 4000, 0.048},
	{"Morango", 10000, 0.015},
	{"Limão", 5000, 0.003},
	{"Coco Ralado", 8000, 0.014},
	{"Fermento em Pó", 3000, 0.025},
	{"Essência de Baunilha", 2000, 0.080},
	{"Canela em Pó", 2000, 0.035},
	{"Gelatina em Pó", 2500, 0.085},
	{"Óleo de Soja", 15000, 0.006},
	{"Sal", 5000, 0.0015},
}

var seedRecipes = []seedRecipe{
	{"Bolo de Chocolate", 12, map[string]float64{
		"Farinha de Trigo": 300, "Açúcar Refinado": 200, "Chocolate em Pó": 100,
		"Ovos": 150, "Leite": 200, "Óleo de Soja": 100, "Fermento em Pó": 15,
	}},
	{"Cupcake de Baunilha", 12, map[string]float64{
		"Farinha de Trigo": 200, "Açúcar Refinado": 150, "Manteiga": 100,
		"Ovos": 100, "Leite": 100, "Essência de Baunilha": 5, "Fermento em Pó": 10,
	}},
	{"Torta de Morango", 10, map[string]float64{
		"Farinha de Trigo": 250, "Açúcar Refinado": 100, "Manteiga": 150, "Ovos": 100,
		"Creme de Leite": 300, "Gelatina em Pó": 20, "Morango": 500,
	}},
	{"Brigadeiro Gourmet", 30, map[string]float64{
		"Leite Condensado": 400, "Chocolate em Pó": 50, "Manteiga": 20, "Avelãs": 30,
	}},
	{"Brownie de Chocolate", 16, map[string]float64{
		"Chocolate Meio Amargo": 200, "Manteiga": 150, "Açúcar Refinado": 200,
		"Ovos": 150, "Farinha de Trigo": 100, "Cacau em Pó": 50,
	}},
	{"Cheesecake", 10, map[string]float64{
		"Queijo Cream Cheese": 500, "Açúcar Refinado": 150, "Ovos": 150,
		"Creme de Leite": 200, "Essência de Baunilha": 10, "Farinha de Trigo": 200,
	}},
	{"Torta de Limão", 10, map[string]float64{
		"Farinha de Trigo": 300, "Manteiga": 150, "Açúcar Refinado": 100,
		"Leite Condensado": 400, "Limão": 200, "Gelatina em Pó": 15,
	}},
	{"Pudim de Leite Condensado", 8, map[string]float64{
		"Leite Condensado": 400, "Leite": 400, "Ovos": 150, "Açúcar Refinado": 100,
	}},
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if envErr != nil {
		log.Info("ℹ️ No .env file, using process environment")
	}

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("❌ Database connection failed", "error", err)
	}
	defer database.Close(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("❌ Migration failed", "error", err)
	}

	created, err := models.InitDefaultUsers(db, seedUsers)
	if err != nil {
		log.Fatal("❌ Seeding users failed", "error", err)
	}
	log.Info("👥 Users seeded", "created", created, "total", len(seedUsers))

	ids, err := upsertProducts(db)
	if err != nil {
		log.Fatal("❌ Seeding products failed", "error", err)
	}
	log.Info("📦 Products seeded", "total", len(ids))

	ctx := context.Background()
	recipes := services.NewRecipeService(db, log)
	seeded := 0
	for _, r := range seedRecipes {
		var existing models.Recipe
		err := db.Where("name = ?", r.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal("❌ Recipe lookup failed", "recipe", r.Name, "error", err)
		}

		in := services.RecipeInput{Name: r.Name, ServingSize: r.ServingSize}
		for name, amount := range r.Ingredients {
			id, ok := ids[name]
			if !ok {
				log.Warn("⚠️ Unknown ingredient skipped", "recipe", r.Name, "ingredient", name)
				continue
			}
			in.Ingredients = append(in.Ingredients, models.IngredientInput{ProductID: id, Amount: amount})
		}
		if _, err := recipes.Create(ctx, in); err != nil {
			log.Fatal("❌ Recipe creation failed", "recipe", r.Name, "error", err)
		}
		seeded++
	}
	log.Info("🍰 Recipes seeded", "created", seeded, "total", len(seedRecipes))
	log.Info("✅ Seed finished")
}

// upsertProducts creates missing products and resets stock and price of
// existing ones. It returns name -> id.
func upsertProducts(db *gorm.DB) (map[string]string, error) {
	ids := make(map[string]string, len(seedProducts))
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, sp := range seedProducts {
			price := sp.PricePerGram
			var p models.Product
			err := tx.Where("name = ?", sp.Name).First(&p).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				p = models.Product{Name: sp.Name, Unit: models.UnitGram, Quantity: sp.Quantity, PricePerGram: &price}
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				err := tx.Model(&p).Updates(map[string]interface{}{
					"quantity":       sp.Quantity,
					"price_per_gram": price,
				}).Error
				if err != nil {
					return err
				}
			}
			ids[sp.Name] = p.ID
		}
		return nil
	})
	return ids, err
}
