package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgIFoodConfigured   = "Integração configurada com sucesso"
	MsgOrderConfirmed    = "Pedido confirmado com sucesso"
	MsgOrderCancelled    = "Pedido cancelado com sucesso"
	MsgOrderDispatched   = "Pedido despachado com sucesso"
	MsgWebhookTested     = "Webhook testado com sucesso"
	MsgWebhookProcessed  = "Webhook processado com sucesso"
	MsgInvalidDateFormat = "Data inválida (use AAAA-MM-DD)"
)

// IFoodController exposes the marketplace integration
type IFoodController struct {
	ifoodService *services.IFoodService
	logger       *logger.Logger
}

func NewIFoodController(ifoodService *services.IFoodService, log *logger.Logger) *IFoodController {
	return &IFoodController{ifoodService: ifoodService, logger: log}
}

// parseDate accepts YYYY-MM-DD or RFC 3339; an empty value is the zero time
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// POST /ifood/integration/configure
func (ic *IFoodController) Configure(c *gin.Context) {
	var req services.IFoodConfigInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	cfg, err := ic.ifoodService.Configure(c.Request.Context(), req)
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgIFoodConfigured, cfg)
}

// GET /ifood/integration/config
func (ic *IFoodController) GetConfig(c *gin.Context) {
	cfg, err := ic.ifoodService.Config(c.Request.Context())
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondData(c, http.StatusOK, cfg)
}

// GET /ifood/integration/status
func (ic *IFoodController) GetStatus(c *gin.Context) {
	status, err := ic.ifoodService.Status(c.Request.Context())
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondData(c, http.StatusOK, status)
}

type catalogSyncRequest struct {
	Products []services.CatalogProduct `json:"products"`
}

// POST /ifood/catalog/sync
func (ic *IFoodController) SyncCatalog(c *gin.Context) {
	var req catalogSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	synced, err := ic.ifoodService.SyncCatalog(c.Request.Context(), req.Products)
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, fmt.Sprintf("%d produtos sincronizados com sucesso", len(synced)), synced)
}

// GET /ifood/orders?status=PLACED&limit=50&offset=0
func (ic *IFoodController) GetOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	page := ic.ifoodService.Orders(c.Request.Context(), c.Query("status"), limit, offset)
	respondData(c, http.StatusOK, page)
}

// GET /ifood/orders/:orderId
func (ic *IFoodController) GetOrder(c *gin.Context) {
	order, err := ic.ifoodService.Order(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

type confirmRequest struct {
	EstimatedTime int `json:"estimatedTime"`
}

// POST /ifood/orders/:orderId/confirm
func (ic *IFoodController) ConfirmOrder(c *gin.Context) {
	var req confirmRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)

	change, err := ic.ifoodService.Confirm(c.Request.Context(), c.Param("orderId"), req.EstimatedTime)
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgOrderConfirmed, change)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// POST /ifood/orders/:orderId/cancel
func (ic *IFoodController) CancelOrder(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, services.MsgCancelReason)
		return
	}

	change, err := ic.ifoodService.Cancel(c.Request.Context(), c.Param("orderId"), req.Reason)
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgOrderCancelled, change)
}

// POST /ifood/orders/:orderId/dispatch
func (ic *IFoodController) DispatchOrder(c *gin.Context) {
	change, err := ic.ifoodService.Dispatch(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgOrderDispatched, change)
}

// GET /ifood/analytics/sales-summary?startDate=2024-01-01&endDate=2024-01-31&groupBy=day
func (ic *IFoodController) GetSalesSummary(c *gin.Context) {
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		respondBadRequest(c, MsgInvalidDateFormat)
		return
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		respondBadRequest(c, MsgInvalidDateFormat)
		return
	}

	summary := ic.ifoodService.SalesSummary(c.Request.Context(), start, end, c.DefaultQuery("groupBy", "day"))
	respondData(c, http.StatusOK, summary)
}

// GET /ifood/analytics/top-products?limit=10
func (ic *IFoodController) GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	respondData(c, http.StatusOK, ic.ifoodService.TopProducts(c.Request.Context(), limit))
}

// POST /ifood/webhook/test
func (ic *IFoodController) TestWebhook(c *gin.Context) {
	result, err := ic.ifoodService.TestWebhook(c.Request.Context())
	if err != nil {
		RespondError(c, ic.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgWebhookTested, result)
}

// POST /ifood/webhook
//
// Called by the marketplace; no bearer token.
func (ic *IFoodController) Webhook(c *gin.Context) {
	var evt services.WebhookEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}
	ic.ifoodService.HandleWebhook(c.Request.Context(), evt)
	respondMessage(c, http.StatusOK, MsgWebhookProcessed, nil)
}
