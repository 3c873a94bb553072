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
)

func newTestIFood(t *testing.T) (*IFoodService, *MemoryCache, *recordingPublisher) {
	t.Helper()
	cache := NewMemoryCache()
	pub := &recordingPublisher{}
	svc := NewIFoodService(cache, logger.Nop())
	svc.SetPublisher(pub)
	return svc, cache, pub
}

func TestIFoodConfigure(t *testing.T) {
	svc, cache, _ := newTestIFood(t)
	ctx := context.Background()

	_, err := svc.Config(ctx)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "disconnected", status.Status)

	_, err = svc.Configure(ctx, IFoodConfigInput{MerchantID: "m1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	cfg, err := svc.Configure(ctx, IFoodConfigInput{
		MerchantID:   "m1",
		ClientID:     "c1",
		ClientSecret: "super-secret",
		WebhookURL:   "https://padaria.example/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, maskedSecret, cfg.ClientSecret)
	assert.True(t, cfg.IsActive)

	var stored IFoodConfig
	ok, err := cache.GetJSON(ctx, ifoodConfigKey, &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "super-secret", stored.ClientSecret)

	cfg, err = svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1", cfg.MerchantID)
	assert.Equal(t, maskedSecret, cfg.ClientSecret)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "connected", status.Status)
	assert.Equal(t, 2, status.TotalOrders)
	assert.Nil(t, status.LastSync)

	webhook, err := svc.TestWebhook(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OK", webhook["status"])

	_, err = svc.SyncCatalog(ctx, nil)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	synced, err := svc.SyncCatalog(ctx, []CatalogProduct{{}})
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.NotNil(t, synced[0].SyncedAt)
	status, _ = svc.Status(ctx)
	assert.NotNil(t, status.LastSync)
}

func TestIFoodInactiveConfig(t *testing.T) {
	svc, _, _ := newTestIFood(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Configure(ctx, IFoodConfigInput{
		MerchantID: "m1", ClientID: "c1", ClientSecret: "s", WebhookURL: "https://x", IsActive: &inactive,
	})
	require.NoError(t, err)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsActive)
	assert.Equal(t, "disconnected", status.Status)
}

func TestIFoodOrders(t *testing.T) {
	svc, _, _ := newTestIFood(t)
	ctx := context.Background()

	page := svc.Orders(ctx, "", 0, 0)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, defaultOrdersLimit, page.Limit)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, "ORDER_001", page.Orders[0].ID)

	page = svc.Orders(ctx, OrderConfirmed, 10, 0)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "ORDER_002", page.Orders[0].ID)

	page = svc.Orders(ctx, "", 1, 1)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "ORDER_002", page.Orders[0].ID)

	page = svc.Orders(ctx, "", 10, 5)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 2, page.Total)

	order, err := svc.Order(ctx, "ORDER_001")
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", order.Customer.Name)

	_, err = svc.Order(ctx, "ORDER_999")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestIFoodOrderTransitions(t *testing.T) {
	svc, _, pub := newTestIFood(t)
	ctx := context.Background()

	change, err := svc.Confirm(ctx, "ORDER_001", 0)
	require.NoError(t, err)
	assert.Equal(t, OrderConfirmed, change.Status)
	assert.Equal(t, defaultEstimatedTime, change.EstimatedTime)

	_, err = svc.Confirm(ctx, "ORDER_001", 15)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Cancel(ctx, "ORDER_002", " ")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	change, err = svc.Dispatch(ctx, "ORDER_002")
	require.NoError(t, err)
	assert.Equal(t, OrderDispatched, change.Status)

	_, err = svc.Cancel(ctx, "ORDER_002", "cliente desistiu")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	change, err = svc.Cancel(ctx, "ORDER_001", "cliente desistiu")
	require.NoError(t, err)
	assert.Equal(t, "cliente desistiu", change.Reason)

	_, err = svc.Dispatch(ctx, "ORDER_999")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Equal(t, []string{events.IFoodWebhook, events.IFoodWebhook, events.IFoodWebhook}, pub.types())

	order, err := svc.Order(ctx, "ORDER_001")
	require.NoError(t, err)
	assert.Equal(t, OrderCancelled, order.Status)
}

func TestIFoodSales(t *testing.T) {
	svc, _, _ := newTestIFood(t)
	ctx := context.Background()

	summary := svc.SalesSummary(ctx, time.Time{}, time.Time{}, "")
	assert.Equal(t, 2, summary.TotalOrders)
	assert.Equal(t, 133.0, summary.TotalRevenue)
	assert.Equal(t, 66.5, summary.AverageOrderValue)
	assert.Equal(t, 1, summary.OrdersByStatus[OrderPlaced])
	assert.Equal(t, 1, summary.OrdersByStatus[OrderConfirmed])
	assert.Equal(t, "day", summary.Period.GroupBy)

	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	summary = svc.SalesSummary(ctx, past, past.AddDate(0, 1, 0), "week")
	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.AverageOrderValue)

	_, err := svc.Cancel(ctx, "ORDER_001", "sem estoque")
	require.NoError(t, err)
	summary = svc.SalesSummary(ctx, time.Time{}, time.Time{}, "")
	assert.Equal(t, 35.0, summary.TotalRevenue)
	assert.Equal(t, 1, summary.OrdersByStatus[OrderCancelled])

	top := svc.TopProducts(ctx, 0)
	require.Len(t, top, 1)
	assert.Equal(t, TopProduct{Name: "Torta de Morango", Quantity: 1, Revenue: 35}, top[0])
}

func TestIFoodTopProducts(t *testing.T) {
	svc, _, _ := newTestIFood(t)

	top := svc.TopProducts(context.Background(), 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Cupcake de Baunilha", top[0].Name)
	assert.Equal(t, 6, top[0].Quantity)
	assert.Equal(t, 48.0, top[0].Revenue)
	assert.Equal(t, "Bolo de Chocolate", top[1].Name)
}

func TestIFoodWebhook(t *testing.T) {
	svc, _, pub := newTestIFood(t)

	svc.HandleWebhook(context.Background(), WebhookEvent{EventType: "PLACED", OrderID: "ORDER_003"})
	require.Len(t, pub.events, 1)
	evt, ok := pub.events[0].Data.(WebhookEvent)
	require.True(t, ok)
	assert.Equal(t, "ORDER_003", evt.OrderID)

	res, err := svc.TestWebhook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NOT_CONFIGURED", res["status"])
}
