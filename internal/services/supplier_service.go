package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

type SupplierCounts struct {
	Products  int64 `json:"products"`
	Purchases int64 `json:"purchases"`
}

// SupplierSummary is a list row
type SupplierSummary struct {
	models.Supplier
	Count SupplierCounts `json:"_count"`
}

// SupplierDetail adds the live products and the 10 latest purchases
type SupplierDetail struct {
	models.Supplier
	Products  []models.Product  `json:"products"`
	Purchases []models.Purchase `json:"purchases"`
}

type SupplierInput struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// SupplierService manages vendors
type SupplierService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSupplierService(db *gorm.DB, log *logger.Logger) *SupplierService {
	return &SupplierService{db: db, logger: log}
}

// List returns live suppliers by name with product and purchase counts
func (s *SupplierService) List(ctx context.Context) ([]SupplierSummary, error) {
	var suppliers []models.Supplier
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}

	type countRow struct {
		SupplierID string
		N          int64
	}
	var productCounts, purchaseCounts []countRow
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Select("supplier_id, COUNT(*) AS n").
		Where("supplier_id IS NOT NULL").
		Group("supplier_id").
		Scan(&productCounts).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	if err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Select("supplier_id, COUNT(*) AS n").
		Where("supplier_id IS NOT NULL").
		Group("supplier_id").
		Scan(&purchaseCounts).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}

	counts := make(map[string]*SupplierCounts, len(suppliers))
	for _, sup := range suppliers {
		counts[sup.ID] = &SupplierCounts{}
	}
	for _, row := range productCounts {
		if c, ok := counts[row.SupplierID]; ok {
			c.Products = row.N
		}
	}
	for _, row := range purchaseCounts {
		if c, ok := counts[row.SupplierID]; ok {
			c.Purchases = row.N
		}
	}

	out := make([]SupplierSummary, 0, len(suppliers))
	for _, sup := range suppliers {
		out = append(out, SupplierSummary{Supplier: sup, Count: *counts[sup.ID]})
	}
	return out, nil
}

func (s *SupplierService) Get(ctx context.Context, id string) (*SupplierDetail, error) {
	var supplier models.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}

	detail := &SupplierDetail{Supplier: supplier}
	if err := s.db.WithContext(ctx).Where("supplier_id = ?", id).Order("name ASC").
		Find(&detail.Products).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	if err := s.db.WithContext(ctx).Where("supplier_id = ?", id).
		Order("purchase_date DESC").Limit(10).
		Find(&detail.Purchases).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	return detail, nil
}

func (s *SupplierService) Create(ctx context.Context, in SupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidArgument(MsgNameRequired)
	}
	supplier := models.Supplier{
		Name:    name,
		Contact: in.Contact,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}
	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	s.logger.Info("✅ Supplier created", "id", supplier.ID, "name", supplier.Name)
	return &supplier, nil
}

func (s *SupplierService) Update(ctx context.Context, id string, patch models.SupplierPatch) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	patch.Apply(&supplier)
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, apperr.InvalidArgument(MsgNameRequired)
	}
	if err := s.db.WithContext(ctx).Save(&supplier).Error; err != nil {
		return nil, apperr.FromGorm(err, MsgSupplierNotFound)
	}
	s.logger.Info("✅ Supplier updated", "id", id)
	return &supplier, nil
}

// Delete soft-deletes a supplier. Products and purchases keep their reference.
func (s *SupplierService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id)
	if res.Error != nil {
		return apperr.FromGorm(res.Error, MsgSupplierNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(MsgSupplierNotFound)
	}
	s.logger.Info("🗑️ Supplier deleted", "id", id)
	return nil
}
