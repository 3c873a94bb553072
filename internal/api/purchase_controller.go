package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const MsgPurchaseCreated = "Compra registrada com sucesso"

// PurchaseController records restocks and builds the shopping list
type PurchaseController struct {
	purchaseService *services.PurchaseService
	logger          *logger.Logger
}

func NewPurchaseController(purchaseService *services.PurchaseService, log *logger.Logger) *PurchaseController {
	return &PurchaseController{purchaseService: purchaseService, logger: log}
}

// GET /purchases
func (pc *PurchaseController) GetPurchases(c *gin.Context) {
	purchases, err := pc.purchaseService.List(c.Request.Context())
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondData(c, http.StatusOK, purchases)
}

// POST /purchases
func (pc *PurchaseController) CreatePurchase(c *gin.Context) {
	var req services.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	purchase, err := pc.purchaseService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, MsgPurchaseCreated, purchase)
}

// GET /purchases/shopping-list
func (pc *PurchaseController) GetShoppingList(c *gin.Context) {
	list, err := pc.purchaseService.ShoppingList(c.Request.Context())
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondData(c, http.StatusOK, list)
}
