package ledger

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lchampz/saas-bakery/internal/models"
)

// GormUnitOfWork backs the ledger with a gorm database
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Reader() Reader {
	return &gormStore{db: u.db}
}

func (u *GormUnitOfWork) Transact(ctx context.Context, fn func(tx Store) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, rowLocks: supportsRowLocks(tx)})
	})
}

// sqlite has no SELECT ... FOR UPDATE; its single writer lock already serializes
// transactions.
func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}

type gormStore struct {
	db       *gorm.DB
	rowLocks bool
}

func (s *gormStore) FindRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *gormStore) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("name ASC").
		Find(&recipes).Error
	return recipes, err
}

func (s *gormStore) FindProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	return s.products(s.db.WithContext(ctx), ids)
}

func (s *gormStore) LockProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	q := s.db.WithContext(ctx)
	if s.rowLocks {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.products(q, ids)
}

func (s *gormStore) products(q *gorm.DB, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	// Stable lock order keeps two concurrent prepares from deadlocking each other.
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var rows []models.Product
	if err := q.Where("id IN ?", sorted).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (s *gormStore) DecrementStock(ctx context.Context, productID string, amount float64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) AppendConsumption(ctx context.Context, c *models.Consumption) error {
	return s.db.WithContext(ctx).Create(c).Error
}
