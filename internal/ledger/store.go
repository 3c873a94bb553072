package ledger

import (
	"context"
	"errors"

	"github.com/lchampz/saas-bakery/internal/models"
)

// ErrNotFound is returned by stores when a recipe does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Reader is the read-only view used by capability and scale.
type Reader interface {
	// FindRecipe loads a recipe with its ingredients; each ingredient's Product is
	// populated when the product still exists (soft-deleted ones included).
	FindRecipe(ctx context.Context, id string) (*models.Recipe, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	// FindProducts returns the live (not soft-deleted) products among ids.
	FindProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// Store is the transaction-scoped view handed to a unit of work callback.
type Store interface {
	Reader
	// LockProducts is FindProducts holding row locks until the transaction ends.
	LockProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
	// DecrementStock subtracts amount only if the product still has at least that
	// much. It reports false when the guard rejected the update.
	DecrementStock(ctx context.Context, productID string, amount float64) (bool, error)
	AppendConsumption(ctx context.Context, c *models.Consumption) error
}

// UnitOfWork runs fn inside one transaction. A non-nil error from fn rolls back
// everything fn did through the Store.
type UnitOfWork interface {
	Reader() Reader
	Transact(ctx context.Context, fn func(tx Store) error) error
}
