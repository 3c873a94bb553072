package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Units a product's stock can be counted in
const (
	UnitMilligram  = "mg"
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitPiece      = "un"
)

// Default reorder thresholds when a product has no MinLevel of its own
const (
	DefaultMinLevelPiece = 1.0
	DefaultMinLevelBulk  = 100.0
)

var validUnits = map[string]bool{
	UnitMilligram:  true,
	UnitGram:       true,
	UnitKilogram:   true,
	UnitMilliliter: true,
	UnitLiter:      true,
	UnitPiece:      true,
}

// NormalizeUnit lowercases and trims u; empty becomes grams
func NormalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return UnitGram
	}
	return u
}

// ValidUnit reports whether u is one of mg/g/kg/ml/l/un
func ValidUnit(u string) bool {
	return validUnits[u]
}

// Product is a stock item (flour, sugar, eggs...). Quantity is expressed in Unit.
type Product struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Unit         string         `json:"unit" gorm:"type:varchar(10);not null;default:'g'"`
	Quantity     float64        `json:"quantity" gorm:"type:decimal(14,4);not null;default:0"`
	PricePerGram *float64       `json:"pricePerGram" gorm:"type:decimal(12,6)"`
	MinLevel     *float64       `json:"minLevel" gorm:"type:decimal(14,4)"`
	SupplierID   *string        `json:"supplierId" gorm:"type:uuid;index"`
	Supplier     *Supplier      `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Unit = NormalizeUnit(p.Unit)
	return nil
}

// Price returns PricePerGram or 0 when unset
func (p *Product) Price() float64 {
	if p == nil || p.PricePerGram == nil {
		return 0
	}
	return *p.PricePerGram
}

// EffectiveMinLevel is MinLevel, or 1 for pieces and 100 for weight/volume units
func (p *Product) EffectiveMinLevel() float64 {
	if p.MinLevel != nil {
		return *p.MinLevel
	}
	if p.Unit == UnitPiece {
		return DefaultMinLevelPiece
	}
	return DefaultMinLevelBulk
}

// IsLow reports whether stock sits below the reorder threshold
func (p *Product) IsLow() bool {
	return p.Quantity < p.EffectiveMinLevel()
}

// Consumption is an append-only audit row written whenever stock leaves the shelf
type Consumption struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID string    `json:"productId" gorm:"type:uuid;not null;index"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Amount    float64   `json:"amount" gorm:"type:decimal(14,4);not null"`
	Reason    string    `json:"reason" gorm:"type:varchar(255);not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (Consumption) TableName() string {
	return "consumptions"
}

func (c *Consumption) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// PrepareReasonPrefix tags consumptions written by recipe preparation
const PrepareReasonPrefix = "prepare:"

// PrepareReason builds the audit tag for preparing recipeName
func PrepareReason(recipeName string) string {
	return PrepareReasonPrefix + recipeName
}
