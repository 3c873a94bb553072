package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/database"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.ConnectSQLite(":memory:", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func seedProduct(t *testing.T, db *gorm.DB, name, unit string, qty, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Unit: unit, Quantity: qty}
	if price > 0 {
		p.PricePerGram = ptr(price)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func quantityOf(t *testing.T, db *gorm.DB, id string) float64 {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Unscoped().First(&p, "id = ?", id).Error)
	return p.Quantity
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
