package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

const (
	BackupVersion       = "1.0"
	backupPurchaseLimit = 100
)

type BackupData struct {
	Products  []models.Product  `json:"products"`
	Recipes   []models.Recipe   `json:"recipes"`
	Suppliers []models.Supplier `json:"suppliers"`
	Purchases []models.Purchase `json:"purchases"`
}

type Backup struct {
	Version   string     `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	Data      BackupData `json:"data"`
}

// Filename is the download name, backup-YYYY-MM-DD.json
func (b *Backup) Filename() string {
	return "backup-" + b.CreatedAt.UTC().Format("2006-01-02") + ".json"
}

// BackupService snapshots the live catalog and the latest purchases
type BackupService struct {
	db     *gorm.DB
	logger *logger.Logger
	now    func() time.Time
}

func NewBackupService(db *gorm.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, logger: log, now: time.Now}
}

// Snapshot reads everything in one read-only transaction so the sections agree
// with each other.
func (s *BackupService) Snapshot(ctx context.Context) (*Backup, error) {
	backup := &Backup{Version: BackupVersion, CreatedAt: s.now().UTC()}
	data := &backup.Data

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("name ASC").Find(&data.Products).Error; err != nil {
			return err
		}
		if err := withIngredients(tx).Order("name ASC").Find(&data.Recipes).Error; err != nil {
			return err
		}
		if err := tx.Order("name ASC").Find(&data.Suppliers).Error; err != nil {
			return err
		}
		return tx.
			Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Preload("Items").
			Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Order("purchase_date DESC").
			Limit(backupPurchaseLimit).
			Find(&data.Purchases).Error
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Erro ao criar backup", err)
	}

	s.logger.Info("💾 Backup created",
		"products", len(data.Products), "recipes", len(data.Recipes),
		"suppliers", len(data.Suppliers), "purchases", len(data.Purchases))
	return backup, nil
}
