package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	MsgPurchaseNeedsItems  = "A compra deve ter pelo menos um item"
	MsgInvalidPurchaseItem = "Cada item precisa de um produto, quantidade maior que zero e preço unitário não negativo"
	purchaseListLimit      = 50
	noSupplierKey          = "sem-fornecedor"
	noSupplierName         = "Sem Fornecedor"
)

type PurchaseItemInput struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type PurchaseInput struct {
	SupplierID    *string             `json:"supplierId"`
	InvoiceNumber string              `json:"invoiceNumber"`
	PurchaseDate  *time.Time          `json:"purchaseDate"`
	Notes         string              `json:"notes"`
	Items         []PurchaseItemInput `json:"items"`
}

// ShoppingSupplier is the supplier block of a shopping list entry. ID is null
// for the "no supplier" group.
type ShoppingSupplier struct {
	ID      *string `json:"id"`
	Name    string  `json:"name"`
	Contact string  `json:"contact,omitempty"`
	Phone   string  `json:"phone,omitempty"`
}

type ShoppingItem struct {
	ProductID         string            `json:"productId"`
	ProductName       string            `json:"productName"`
	CurrentQuantity   float64           `json:"currentQuantity"`
	MinLevel          float64           `json:"minLevel"`
	SuggestedQuantity float64           `json:"suggestedQuantity"`
	Unit              string            `json:"unit"`
	Supplier          *ShoppingSupplier `json:"supplier"`
}

type ShoppingGroup struct {
	Supplier ShoppingSupplier `json:"supplier"`
	Items    []ShoppingItem   `json:"items"`
}

type ShoppingList struct {
	Items             []ShoppingItem  `json:"items"`
	GroupedBySupplier []ShoppingGroup `json:"groupedBySupplier"`
	TotalItems        int             `json:"totalItems"`
}

// PurchaseService records supplier deliveries and restocks products
type PurchaseService struct {
	db        *gorm.DB
	publisher events.Publisher
	cache     Cache
	logger    *logger.Logger
}

func NewPurchaseService(db *gorm.DB, log *logger.Logger) *PurchaseService {
	return &PurchaseService{db: db, publisher: events.Discard{}, cache: NewMemoryCache(), logger: log}
}

func (s *PurchaseService) SetPublisher(p events.Publisher) {
	s.publisher = p
}

func (s *PurchaseService) SetCache(cache Cache) {
	s.cache = cache
}

// List returns the 50 most recent purchases with supplier and items
func (s *PurchaseService) List(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).
		Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("purchase_date DESC").
		Limit(purchaseListLimit).
		Find(&purchases).Error
	if err != nil {
		return nil, apperr.FromGorm(err, "Compra não encontrada")
	}
	return purchases, nil
}

// Create stores the purchase and increments stock for every item in one
// transaction. An unknown product or supplier rolls everything back.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput) (*models.Purchase, error) {
	if len(in.Items) == 0 {
		return nil, apperr.InvalidArgument(MsgPurchaseNeedsItems)
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" || !(item.Quantity > 0) || item.UnitPrice < 0 ||
			math.IsInf(item.Quantity, 0) || math.IsNaN(item.UnitPrice) {
			return nil, apperr.InvalidArgument(MsgInvalidPurchaseItem)
		}
	}

	purchase := models.Purchase{
		InvoiceNumber: in.InvoiceNumber,
		Notes:         in.Notes,
	}
	if in.SupplierID != nil && *in.SupplierID != "" {
		id := *in.SupplierID
		purchase.SupplierID = &id
	}
	if in.PurchaseDate != nil {
		purchase.PurchaseDate = in.PurchaseDate.UTC()
	}
	for _, item := range in.Items {
		purchase.Items = append(purchase.Items, models.PurchaseItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	purchase.CalculateTotalAmount()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if purchase.SupplierID != nil {
			var n int64
			if err := tx.Model(&models.Supplier{}).Where("id = ?", *purchase.SupplierID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperr.NotFound(MsgSupplierNotFound)
			}
		}

		for _, item := range purchase.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound(MsgProductNotFound)
			}
		}

		return tx.Create(&purchase).Error
	})
	if err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}

	s.logger.Info("📦 Purchase registered", "id", purchase.ID, "items", len(purchase.Items),
		"total_amount", purchase.TotalAmount)
	invalidateReports(ctx, s.cache, s.logger)

	var created models.Purchase
	if err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items.Product").
		First(&created, "id = ?", purchase.ID).Error; err != nil {
		return nil, apperr.FromGorm(err, "Compra não encontrada")
	}

	s.publisher.Publish(ctx, events.NewEvent(events.PurchaseCreated, map[string]interface{}{
		"purchaseId":  created.ID,
		"supplierId":  created.SupplierID,
		"totalAmount": created.TotalAmount,
		"items":       len(created.Items),
	}))
	return &created, nil
}

// ShoppingList lists products below their reorder threshold with a suggested
// order of max(2×min − qty, min), grouped by supplier.
func (s *PurchaseService) ShoppingList(ctx context.Context) (*ShoppingList, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Supplier").Order("name ASC").Find(&products).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	return BuildShoppingList(products), nil
}

func BuildShoppingList(products []models.Product) *ShoppingList {
	list := &ShoppingList{Items: []ShoppingItem{}, GroupedBySupplier: []ShoppingGroup{}}
	groups := map[string]*ShoppingGroup{}
	var order []string

	for i := range products {
		p := &products[i]
		if !p.IsLow() {
			continue
		}
		minLevel := p.EffectiveMinLevel()
		item := ShoppingItem{
			ProductID:         p.ID,
			ProductName:       p.Name,
			CurrentQuantity:   p.Quantity,
			MinLevel:          minLevel,
			SuggestedQuantity: math.Max(minLevel*2-p.Quantity, minLevel),
			Unit:              p.Unit,
		}
		key := noSupplierKey
		group := ShoppingSupplier{Name: noSupplierName}
		if p.Supplier != nil {
			id := p.Supplier.ID
			group = ShoppingSupplier{ID: &id, Name: p.Supplier.Name, Contact: p.Supplier.Contact, Phone: p.Supplier.Phone}
			item.Supplier = &group
			key = id
		}
		list.Items = append(list.Items, item)

		g, ok := groups[key]
		if !ok {
			g = &ShoppingGroup{Supplier: group}
			groups[key] = g
			order = append(order, key)
		}
		g.Items = append(g.Items, item)
	}

	// suppliers by name, the no-supplier bucket last
	sort.SliceStable(order, func(i, j int) bool {
		if order[i] == noSupplierKey || order[j] == noSupplierKey {
			return order[j] == noSupplierKey && order[i] != noSupplierKey
		}
		return groups[order[i]].Supplier.Name < groups[order[j]].Supplier.Name
	})
	for _, key := range order {
		list.GroupedBySupplier = append(list.GroupedBySupplier, *groups[key])
	}
	list.TotalItems = len(list.Items)
	return list
}
