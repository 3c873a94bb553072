package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is a supplier delivery. Creating one increments stock for every item.
type Purchase struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	SupplierID    *string        `json:"supplierId" gorm:"type:uuid;index"`
	Supplier      *Supplier      `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	TotalAmount   float64        `json:"totalAmount" gorm:"type:decimal(14,2);not null;default:0"`
	InvoiceNumber string         `json:"invoiceNumber" gorm:"type:varchar(100)"`
	PurchaseDate  time.Time      `json:"purchaseDate" gorm:"index"`
	Notes         string         `json:"notes" gorm:"type:text"`
	Items         []PurchaseItem `json:"items" gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now().UTC()
	}
	return nil
}

// CalculateTotalAmount fills every item's TotalPrice and the purchase total.
// Money is summed in decimal to avoid float drift across many lines.
func (p *Purchase) CalculateTotalAmount() {
	total := decimal.Zero
	for i := range p.Items {
		line := decimal.NewFromFloat(p.Items[i].Quantity).Mul(decimal.NewFromFloat(p.Items[i].UnitPrice)).Round(2)
		p.Items[i].TotalPrice = line.InexactFloat64()
		total = total.Add(line)
	}
	p.TotalAmount = total.Round(2).InexactFloat64()
}

type PurchaseItem struct {
	ID         string   `json:"id" gorm:"type:uuid;primaryKey"`
	PurchaseID string   `json:"purchaseId" gorm:"type:uuid;not null;index"`
	ProductID  string   `json:"productId" gorm:"type:uuid;not null;index"`
	Product    *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   float64  `json:"quantity" gorm:"type:decimal(14,4);not null"`
	UnitPrice  float64  `json:"unitPrice" gorm:"type:decimal(14,6);not null;default:0"`
	TotalPrice float64  `json:"totalPrice" gorm:"type:decimal(14,2);not null;default:0"`
}

func (PurchaseItem) TableName() string {
	return "purchase_items"
}

func (pi *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == "" {
		pi.ID = uuid.New().String()
	}
	return nil
}
