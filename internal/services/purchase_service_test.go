package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

func TestPurchaseCreateRestocks(t *testing.T) {
	db := setupTestDB(t)
	b := seedBakery(t, db)
	supplier := &models.Supplier{Name: "Moinho Central"}
	require.NoError(t, db.Create(supplier).Error)

	svc := NewPurchaseService(db, logger.Nop())
	pub := &recordingPublisher{}
	svc.SetPublisher(pub)

	date := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	purchase, err := svc.Create(context.Background(), PurchaseInput{
		SupplierID:    &supplier.ID,
		InvoiceNumber: "NF-123",
		PurchaseDate:  &date,
		Items: []PurchaseItemInput{
			{ProductID: b.flour.ID, Quantity: 1000, UnitPrice: 0.005},
			{ProductID: b.sugar.ID, Quantity: 500, UnitPrice: 0.004},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, purchase.TotalAmount)
	require.Len(t, purchase.Items, 2)
	require.NotNil(t, purchase.Supplier)
	assert.Equal(t, "Moinho Central", purchase.Supplier.Name)
	assert.True(t, purchase.PurchaseDate.Equal(date))

	assert.Equal(t, 2000.0, quantityOf(t, db, b.flour.ID))
	assert.Equal(t, 1000.0, quantityOf(t, db, b.sugar.ID))
	assert.Equal(t, []string{events.PurchaseCreated}, pub.types())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "NF-123", list[0].InvoiceNumber)
}

func TestPurchaseCreateRollsBack(t *testing.T) {
	db := setupTestDB(t)
	b := seedBakery(t, db)
	svc := NewPurchaseService(db, logger.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, PurchaseInput{Items: []PurchaseItemInput{
		{ProductID: b.flour.ID, Quantity: 1000, UnitPrice: 0.005},
		{ProductID: "missing", Quantity: 1, UnitPrice: 1},
	}})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 1000.0, quantityOf(t, db, b.flour.ID))

	_, err = svc.Create(ctx, PurchaseInput{
		SupplierID: ptr("missing"),
		Items:      []PurchaseItemInput{{ProductID: b.flour.ID, Quantity: 1}},
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, MsgSupplierNotFound, err.Error())

	var count int64
	require.NoError(t, db.Model(&models.Purchase{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPurchaseValidation(t *testing.T) {
	db := setupTestDB(t)
	b := seedBakery(t, db)
	svc := NewPurchaseService(db, logger.Nop())

	tests := []struct {
		name  string
		items []PurchaseItemInput
		msg   string
	}{
		{"no items", nil, MsgPurchaseNeedsItems},
		{"zero quantity", []PurchaseItemInput{{ProductID: b.flour.ID}}, MsgInvalidPurchaseItem},
		{"negative price", []PurchaseItemInput{{ProductID: b.flour.ID, Quantity: 1, UnitPrice: -1}}, MsgInvalidPurchaseItem},
		{"no product", []PurchaseItemInput{{Quantity: 1}}, MsgInvalidPurchaseItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), PurchaseInput{Items: tt.items})
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestBuildShoppingList(t *testing.T) {
	zeta := &models.Supplier{ID: "s-zeta", Name: "Zeta Laticínios", Phone: "1199"}
	alfa := &models.Supplier{ID: "s-alfa", Name: "Alfa Moinho"}
	products := []models.Product{
		{ID: "p1", Name: "Manteiga", Unit: models.UnitGram, Quantity: 40, Supplier: zeta},
		{ID: "p2", Name: "Ovos", Unit: models.UnitPiece, Quantity: 4, MinLevel: ptr(10.0)},
		{ID: "p3", Name: "Farinha", Unit: models.UnitGram, Quantity: 5000, Supplier: alfa},
		{ID: "p4", Name: "Fermento", Unit: models.UnitGram, Quantity: 0, Supplier: alfa},
	}

	list := BuildShoppingList(products)
	require.Equal(t, 3, list.TotalItems)

	byID := map[string]ShoppingItem{}
	for _, item := range list.Items {
		byID[item.ProductID] = item
	}
	assert.Equal(t, 160.0, byID["p1"].SuggestedQuantity)
	assert.Equal(t, 16.0, byID["p2"].SuggestedQuantity)
	assert.Equal(t, 200.0, byID["p4"].SuggestedQuantity)
	assert.Nil(t, byID["p2"].Supplier)
	require.NotNil(t, byID["p1"].Supplier)
	assert.Equal(t, "1199", byID["p1"].Supplier.Phone)

	require.Len(t, list.GroupedBySupplier, 3)
	assert.Equal(t, "Alfa Moinho", list.GroupedBySupplier[0].Supplier.Name)
	assert.Equal(t, "Zeta Laticínios", list.GroupedBySupplier[1].Supplier.Name)
	assert.Equal(t, noSupplierName, list.GroupedBySupplier[2].Supplier.Name)
	assert.Nil(t, list.GroupedBySupplier[2].Supplier.ID)
}

func TestShoppingListEmpty(t *testing.T) {
	db := setupTestDB(t)
	seedProduct(t, db, "Farinha", models.UnitGram, 5000, 0)
	svc := NewPurchaseService(db, logger.Nop())

	list, err := svc.ShoppingList(context.Background())
	require.NoError(t, err)
	assert.Zero(t, list.TotalItems)
	assert.NotNil(t, list.Items)
	assert.NotNil(t, list.GroupedBySupplier)
}

func TestSupplierService(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSupplierService(db, logger.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, SupplierInput{Name: "   "})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	moinho, err := svc.Create(ctx, SupplierInput{Name: " Moinho ", Phone: "1133"})
	require.NoError(t, err)
	assert.Equal(t, "Moinho", moinho.Name)
	laticinio, err := svc.Create(ctx, SupplierInput{Name: "Laticínio"})
	require.NoError(t, err)

	flour := seedProduct(t, db, "Farinha", models.UnitGram, 100, 0)
	require.NoError(t, db.Model(flour).Update("supplier_id", moinho.ID).Error)
	purchases := NewPurchaseService(db, logger.Nop())
	_, err = purchases.Create(ctx, PurchaseInput{
		SupplierID: &moinho.ID,
		Items:      []PurchaseItemInput{{ProductID: flour.ID, Quantity: 10, UnitPrice: 0.01}},
	})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, laticinio.ID, list[0].ID)
	assert.Equal(t, SupplierCounts{}, list[0].Count)
	assert.Equal(t, SupplierCounts{Products: 1, Purchases: 1}, list[1].Count)

	detail, err := svc.Get(ctx, moinho.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Products, 1)
	assert.Len(t, detail.Purchases, 1)

	updated, err := svc.Update(ctx, moinho.ID, models.SupplierPatch{Contact: ptr("Ana")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.Contact)
	assert.Equal(t, "1133", updated.Phone)

	require.NoError(t, svc.Delete(ctx, laticinio.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, laticinio.ID)))
	_, err = svc.Get(ctx, laticinio.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
