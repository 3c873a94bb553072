package services

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	MsgProductNotFound  = "Produto não encontrado"
	MsgInvalidName      = "Nome deve ter entre 1 e 100 caracteres"
	MsgInvalidQuantity  = "Quantidade deve ser um número positivo"
	MsgInvalidPrice     = "Preço por grama deve ser um número positivo"
	MsgInvalidUnit      = "Unidade inválida"
	MsgSupplierNotFound = "Fornecedor não encontrado"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// api sort key -> column
var productSortColumns = map[string]string{
	"name":         "name",
	"quantity":     "quantity",
	"unit":         "unit",
	"pricePerGram": "price_per_gram",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

// PageRequest is a list query as sent by clients; zero values take defaults
type PageRequest struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (p PageRequest) normalized() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if _, ok := productSortColumns[p.SortBy]; !ok {
		p.SortBy = "createdAt"
	}
	p.SortOrder = strings.ToLower(p.SortOrder)
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}
	return p
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// ProductInput is the create payload
type ProductInput struct {
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Unit         string   `json:"unit"`
	PricePerGram *float64 `json:"pricePerGram"`
	MinLevel     *float64 `json:"minLevel"`
	SupplierID   *string  `json:"supplierId"`
}

func (in ProductInput) toModel() models.Product {
	p := models.Product{
		Name:         strings.TrimSpace(in.Name),
		Unit:         models.NormalizeUnit(in.Unit),
		PricePerGram: in.PricePerGram,
		MinLevel:     in.MinLevel,
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.SupplierID != nil && *in.SupplierID != "" {
		id := *in.SupplierID
		p.SupplierID = &id
	}
	return p
}

func validateProduct(p *models.Product) error {
	if n := utf8.RuneCountInString(p.Name); n < 1 || n > 100 {
		return apperr.InvalidArgument(MsgInvalidName)
	}
	if p.Quantity < 0 || math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
		return apperr.InvalidArgument(MsgInvalidQuantity)
	}
	if p.PricePerGram != nil && (*p.PricePerGram < 0 || math.IsNaN(*p.PricePerGram)) {
		return apperr.InvalidArgument(MsgInvalidPrice)
	}
	if p.MinLevel != nil && *p.MinLevel < 0 {
		return apperr.InvalidArgument(MsgInvalidQuantity)
	}
	if !models.ValidUnit(p.Unit) {
		return apperr.InvalidArgument(MsgInvalidUnit)
	}
	return nil
}

// ProductService manages stock items
type ProductService struct {
	db     *gorm.DB
	cache  Cache
	logger *logger.Logger
}

func NewProductService(db *gorm.DB, log *logger.Logger) *ProductService {
	return &ProductService{db: db, cache: NewMemoryCache(), logger: log}
}

// SetCache shares the report cache so stock edits invalidate it
func (s *ProductService) SetCache(cache Cache) {
	s.cache = cache
}

// List returns one page of live products
func (s *ProductService) List(ctx context.Context, req PageRequest) ([]models.Product, Pagination, error) {
	req = req.normalized()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, apperr.FromGorm(err, MsgProductNotFound)
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Order(productSortColumns[req.SortBy] + " " + req.SortOrder).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, Pagination{}, apperr.FromGorm(err, MsgProductNotFound)
	}
	return products, NewPagination(req.Page, req.Limit, total), nil
}

// All returns every live product ordered by name
func (s *ProductService) All(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	return &product, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := in.toModel()
	if err := validateProduct(&product); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, product.SupplierID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}

	s.logger.Info("✅ Product created", "id", product.ID, "name", product.Name)
	invalidateReports(ctx, s.cache, s.logger)
	return &product, nil
}

// Update applies patch to product id; absent fields are kept
func (s *ProductService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}
	if patch.IsEmpty() {
		return &product, nil
	}

	patch.Apply(&product)
	product.Name = strings.TrimSpace(product.Name)
	if err := validateProduct(&product); err != nil {
		return nil, err
	}
	if patch.SupplierID != nil {
		if err := s.checkSupplier(ctx, product.SupplierID); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Omit("Supplier").Save(&product).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}

	s.logger.Info("✅ Product updated", "id", product.ID)
	invalidateReports(ctx, s.cache, s.logger)
	return &product, nil
}

// Delete soft-deletes a product. Recipes keep referencing it; preparing them then
// fails as a data integrity error.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return apperr.FromGorm(err, MsgProductNotFound)
	}
	if err := s.db.WithContext(ctx).Delete(&product).Error; err != nil {
		return apperr.FromGorm(err, MsgProductNotFound)
	}

	s.logger.Info("🗑️ Product deleted", "id", id)
	invalidateReports(ctx, s.cache, s.logger)
	return nil
}

func (s *ProductService) checkSupplier(ctx context.Context, supplierID *string) error {
	if supplierID == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Supplier{}).Where("id = ?", *supplierID).Count(&count).Error; err != nil {
		return apperr.FromGorm(err, MsgSupplierNotFound)
	}
	if count == 0 {
		return apperr.NotFound(MsgSupplierNotFound)
	}
	return nil
}

// invalidateReports drops cached report payloads after any stock mutation.
// Failures only cost a stale read until the TTL expires.
func invalidateReports(ctx context.Context, cache Cache, log *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.DeletePrefix(ctx, reportCachePrefix); err != nil {
		log.Warn("⚠️ Failed to invalidate report cache", "error", err)
	}
}
