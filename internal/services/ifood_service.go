package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/events"
	"github.com/lchampz/saas-bakery/internal/logger"
)

const (
	MsgIFoodConfigRequired = "Dados obrigatórios não fornecidos"
	MsgCatalogRequired     = "Lista de produtos é obrigatória"
	MsgCancelReason        = "Motivo do cancelamento é obrigatório"
	MsgOrderNotFound       = "Pedido não encontrado"
	MsgOrderTransition     = "Pedido não pode ser alterado no status atual"
	maskedSecret           = "***"
	defaultEstimatedTime   = 30
	defaultTopProducts     = 10
	defaultOrdersLimit     = 50
)

// Order statuses
const (
	OrderPlaced     = "PLACED"
	OrderConfirmed  = "CONFIRMED"
	OrderDispatched = "DISPATCHED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

var orderTransitions = map[string][]string{
	OrderPlaced:     {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderDispatched, OrderCancelled},
	OrderDispatched: {OrderDelivered},
}

type IFoodConfig struct {
	MerchantID   string    `json:"merchantId"`
	ClientID     string    `json:"clientId"`
	ClientSecret string    `json:"clientSecret"`
	WebhookURL   string    `json:"webhookUrl"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c IFoodConfig) masked() *IFoodConfig {
	c.ClientSecret = maskedSecret
	return &c
}

type IFoodConfigInput struct {
	MerchantID   string `json:"merchantId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	WebhookURL   string `json:"webhookUrl"`
	IsActive     *bool  `json:"isActive"`
}

type IFoodStatus struct {
	IsActive    bool       `json:"isActive"`
	LastSync    *time.Time `json:"lastSync"`
	TotalOrders int        `json:"totalOrders"`
	Status      string     `json:"status"`
}

type CatalogProduct struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Category  string     `json:"category"`
	Available bool       `json:"available"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
}

type OrderCustomer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

type OrderAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

type OrderDelivery struct {
	Address        OrderAddress `json:"address"`
	DeliveryFee    float64      `json:"deliveryFee"`
	DeliveryMethod string       `json:"deliveryMethod"`
}

type OrderItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Category   string  `json:"category"`
}

type OrderTotal struct {
	ItemsTotal     float64 `json:"itemsTotal"`
	DeliveryFee    float64 `json:"deliveryFee"`
	Benefits       float64 `json:"benefits"`
	OrderTotal     float64 `json:"orderTotal"`
	AdditionalFees float64 `json:"additionalFees"`
}

type OrderPayment struct {
	ID     string  `json:"id"`
	Method string  `json:"method"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

type IFoodOrder struct {
	ID        string         `json:"id"`
	ShortID   string         `json:"shortId"`
	DisplayID string         `json:"displayId"`
	OrderType string         `json:"orderType"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	Customer  OrderCustomer  `json:"customer"`
	Delivery  OrderDelivery  `json:"delivery"`
	Items     []OrderItem    `json:"items"`
	Total     OrderTotal     `json:"total"`
	Payments  []OrderPayment `json:"payments"`
}

type OrdersPage struct {
	Orders []IFoodOrder `json:"orders"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// OrderChange is the result of confirm, cancel or dispatch
type OrderChange struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	EstimatedTime int       `json:"estimatedTime,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	ChangedAt     time.Time `json:"changedAt"`
}

type SalesPeriod struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	GroupBy   string    `json:"groupBy"`
}

type SalesSummary struct {
	TotalOrders       int            `json:"totalOrders"`
	TotalRevenue      float64        `json:"totalRevenue"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	OrdersByStatus    map[string]int `json:"ordersByStatus"`
	Period            SalesPeriod    `json:"period"`
}

type TopProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type WebhookEvent struct {
	EventType  string          `json:"eventType"`
	OrderID    string          `json:"orderId"`
	MerchantID string          `json:"merchantId"`
	Timestamp  string          `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// IFoodService is the marketplace integration. Talking to the iFood API is not
// implemented: orders live in process memory, seeded with sample data, and only
// the merchant configuration is persisted in the shared cache.
type IFoodService struct {
	cache     Cache
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	orders   map[string]*IFoodOrder
	lastSync *time.Time
}

func NewIFoodService(cache Cache, log *logger.Logger) *IFoodService {
	s := &IFoodService{
		cache:     cache,
		publisher: events.Discard{},
		logger:    log,
		now:       time.Now,
		orders:    map[string]*IFoodOrder{},
	}
	for _, o := range sampleOrders(s.now().UTC()) {
		s.orders[o.ID] = &o
	}
	return s
}

func (s *IFoodService) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// Configure stores the merchant credentials; the secret is masked on output
func (s *IFoodService) Configure(ctx context.Context, in IFoodConfigInput) (*IFoodConfig, error) {
	if in.MerchantID == "" || in.ClientID == "" || in.ClientSecret == "" || in.WebhookURL == "" {
		return nil, apperr.InvalidArgument(MsgIFoodConfigRequired)
	}
	cfg := IFoodConfig{
		MerchantID:   in.MerchantID,
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		WebhookURL:   in.WebhookURL,
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.cache.SetJSON(ctx, ifoodConfigKey, cfg, 0); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Erro ao salvar configuração", err)
	}
	s.logger.Info("✅ iFood integration configured", "merchant_id", cfg.MerchantID, "active", cfg.IsActive)
	return cfg.masked(), nil
}

// Config returns the stored configuration, or NotFound before Configure
func (s *IFoodService) Config(ctx context.Context) (*IFoodConfig, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperr.NotFound("Integração não configurada")
	}
	return cfg.masked(), nil
}

func (s *IFoodService) loadConfig(ctx context.Context) (*IFoodConfig, error) {
	var cfg IFoodConfig
	found, err := s.cache.GetJSON(ctx, ifoodConfigKey, &cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Erro ao ler configuração", err)
	}
	if !found {
		return nil, nil
	}
	return &cfg, nil
}

func (s *IFoodService) Status(ctx context.Context) (*IFoodStatus, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &IFoodStatus{LastSync: s.lastSync, TotalOrders: len(s.orders), Status: "disconnected"}
	if cfg != nil && cfg.IsActive {
		status.IsActive = true
		status.Status = "connected"
	}
	return status, nil
}

func (s *IFoodService) SyncCatalog(_ context.Context, products []CatalogProduct) ([]CatalogProduct, error) {
	if products == nil {
		return nil, apperr.InvalidArgument(MsgCatalogRequired)
	}
	now := s.now().UTC()
	synced := make([]CatalogProduct, 0, len(products))
	for _, p := range products {
		p.SyncedAt = &now
		synced = append(synced, p)
	}

	s.mu.Lock()
	s.lastSync = &now
	s.mu.Unlock()

	s.logger.Info("🔄 iFood catalog synced", "products", len(synced))
	return synced, nil
}

// Orders lists orders newest first, optionally filtered by status
func (s *IFoodService) Orders(_ context.Context, status string, limit, offset int) *OrdersPage {
	if limit <= 0 {
		limit = defaultOrdersLimit
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	filtered := make([]IFoodOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			filtered = append(filtered, *o)
		}
	}
	s.mu.Unlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	page := &OrdersPage{Orders: []IFoodOrder{}, Total: len(filtered), Limit: limit, Offset: offset}
	if offset < len(filtered) {
		end := min(offset+limit, len(filtered))
		page.Orders = filtered[offset:end]
	}
	return page
}

func (s *IFoodService) Order(_ context.Context, id string) (*IFoodOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound(MsgOrderNotFound)
	}
	copied := *o
	return &copied, nil
}

// Confirm accepts a placed order. estimatedTime <= 0 takes 30 minutes.
func (s *IFoodService) Confirm(ctx context.Context, id string, estimatedTime int) (*OrderChange, error) {
	if estimatedTime <= 0 {
		estimatedTime = defaultEstimatedTime
	}
	change, err := s.transition(id, OrderConfirmed)
	if err != nil {
		return nil, err
	}
	change.EstimatedTime = estimatedTime
	s.announceOrder(ctx, change)
	return change, nil
}

func (s *IFoodService) Cancel(ctx context.Context, id, reason string) (*OrderChange, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.InvalidArgument(MsgCancelReason)
	}
	change, err := s.transition(id, OrderCancelled)
	if err != nil {
		return nil, err
	}
	change.Reason = reason
	s.announceOrder(ctx, change)
	return change, nil
}

func (s *IFoodService) Dispatch(ctx context.Context, id string) (*OrderChange, error) {
	change, err := s.transition(id, OrderDispatched)
	if err != nil {
		return nil, err
	}
	s.announceOrder(ctx, change)
	return change, nil
}

func (s *IFoodService) transition(id, to string) (*OrderChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound(MsgOrderNotFound)
	}
	allowed := false
	for _, next := range orderTransitions[o.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.Conflict(MsgOrderTransition)
	}
	o.Status = to
	return &OrderChange{OrderID: id, Status: to, ChangedAt: s.now().UTC()}, nil
}

func (s *IFoodService) announceOrder(ctx context.Context, change *OrderChange) {
	s.logger.Info("🛵 iFood order updated", "order_id", change.OrderID, "status", change.Status)
	s.publisher.Publish(ctx, events.NewEvent(events.IFoodWebhook, map[string]interface{}{
		"eventType": change.Status,
		"orderId":   change.OrderID,
		"source":    "backoffice",
	}))
}

// SalesSummary aggregates orders created in [start, end]. Cancelled orders are
// counted by status but add no revenue.
func (s *IFoodService) SalesSummary(_ context.Context, start, end time.Time, groupBy string) *SalesSummary {
	now := s.now().UTC()
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if groupBy == "" {
		groupBy = "day"
	}

	summary := &SalesSummary{
		OrdersByStatus: map[string]int{
			OrderPlaced: 0, OrderConfirmed: 0, OrderDispatched: 0, OrderDelivered: 0, OrderCancelled: 0,
		},
		Period: SalesPeriod{StartDate: start, EndDate: end, GroupBy: groupBy},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		summary.TotalOrders++
		summary.OrdersByStatus[o.Status]++
		if o.Status != OrderCancelled {
			summary.TotalRevenue += o.Total.OrderTotal
		}
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.TotalOrders)
	}
	return summary
}

// TopProducts ranks order items by quantity sold
func (s *IFoodService) TopProducts(_ context.Context, limit int) []TopProduct {
	if limit <= 0 {
		limit = defaultTopProducts
	}

	s.mu.Lock()
	byName := map[string]*TopProduct{}
	for _, o := range s.orders {
		if o.Status == OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			tp, ok := byName[item.Name]
			if !ok {
				tp = &TopProduct{Name: item.Name}
				byName[item.Name] = tp
			}
			tp.Quantity += item.Quantity
			tp.Revenue += item.TotalPrice
		}
	}
	s.mu.Unlock()

	out := make([]TopProduct, 0, len(byName))
	for _, tp := range byName {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TestWebhook reports whether a webhook target is configured
func (s *IFoodService) TestWebhook(ctx context.Context) (map[string]interface{}, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	status := "NOT_CONFIGURED"
	if cfg != nil && cfg.WebhookURL != "" {
		status = "OK"
	}
	return map[string]interface{}{"status": status, "timestamp": s.now().UTC()}, nil
}

// HandleWebhook relays an incoming marketplace event to the event bus
func (s *IFoodService) HandleWebhook(ctx context.Context, evt WebhookEvent) {
	s.logger.Info("📨 iFood webhook received", "event_type", evt.EventType,
		"order_id", evt.OrderID, "merchant_id", evt.MerchantID)
	s.publisher.Publish(ctx, events.NewEvent(events.IFoodWebhook, evt))
}

func sampleOrders(now time.Time) []IFoodOrder {
	return []IFoodOrder{
		{
			ID: "ORDER_001", ShortID: "001", DisplayID: "001",
			OrderType: "DELIVERY", Status: OrderPlaced, CreatedAt: now,
			Customer: OrderCustomer{ID: "CUST_001", Name: "Maria Silva", PhoneNumber: "+5511999999999", Email: "maria@email.com"},
			Delivery: OrderDelivery{
				Address: OrderAddress{
					Street: "Rua das Flores", Number: "123", Neighborhood: "Centro",
					City: "São Paulo", State: "SP", ZipCode: "01234-567",
				},
				DeliveryFee:    5,
				DeliveryMethod: "DELIVERY",
			},
			Items: []OrderItem{
				{ID: "ITEM_001", Name: "Bolo de Chocolate", Quantity: 1, UnitPrice: 45, TotalPrice: 45, Category: "Bolos"},
				{ID: "ITEM_002", Name: "Cupcake de Baunilha", Quantity: 6, UnitPrice: 8, TotalPrice: 48, Category: "Cupcakes"},
			},
			Total:    OrderTotal{ItemsTotal: 93, DeliveryFee: 5, OrderTotal: 98},
			Payments: []OrderPayment{{ID: "PAY_001", Method: "PIX", Type: "ONLINE", Value: 98, Status: "PAID"}},
		},
		{
			ID: "ORDER_002", ShortID: "002", DisplayID: "002",
			OrderType: "TAKEOUT", Status: OrderConfirmed, CreatedAt: now.Add(-time.Hour),
			Customer: OrderCustomer{ID: "CUST_002", Name: "João Santos", PhoneNumber: "+5511888888888", Email: "joao@email.com"},
			Delivery: OrderDelivery{
				Address: OrderAddress{
					Street: "Av. Paulista", Number: "1000", Neighborhood: "Bela Vista",
					City: "São Paulo", State: "SP", ZipCode: "01310-100",
				},
				DeliveryMethod: "TAKEOUT",
			},
			Items: []OrderItem{
				{ID: "ITEM_003", Name: "Torta de Morango", Quantity: 1, UnitPrice: 35, TotalPrice: 35, Category: "Tortas"},
			},
			Total:    OrderTotal{ItemsTotal: 35, OrderTotal: 35},
			Payments: []OrderPayment{{ID: "PAY_002", Method: "CREDIT_CARD", Type: "ONLINE", Value: 35, Status: "PAID"}},
		},
	}
}
