package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is a bill of materials for one batch. TotalCost is a cache of
// Σ ingredient.amount × product.pricePerGram and may lag behind live prices.
type Recipe struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;index"`
	ServingSize  int            `json:"servingSize" gorm:"not null;default:1"`
	Instructions string         `json:"instructions" gorm:"type:text"`
	TotalCost    float64        `json:"totalCost" gorm:"type:decimal(14,4);not null;default:0"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Ingredients []RecipeIngredient `json:"ingredients" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ServingSize <= 0 {
		r.ServingSize = 1
	}
	return nil
}

// EffectiveServingSize treats an unset serving size as one
func (r *Recipe) EffectiveServingSize() int {
	if r.ServingSize <= 0 {
		return 1
	}
	return r.ServingSize
}

// RecipeIngredient is one line of a recipe. Amount is per batch and always > 0.
type RecipeIngredient struct {
	ID        string   `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID  string   `json:"recipeId" gorm:"type:uuid;not null;index"`
	ProductID string   `json:"productId" gorm:"type:uuid;not null;index"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Amount    float64  `json:"amount" gorm:"type:decimal(14,4);not null"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == "" {
		ri.ID = uuid.New().String()
	}
	return nil
}
