package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgSupplierCreated = "Fornecedor criado com sucesso"
	MsgSupplierUpdated = "Fornecedor atualizado com sucesso"
	MsgSupplierDeleted = "Fornecedor removido com sucesso"
)

type SupplierController struct {
	supplierService *services.SupplierService
	logger          *logger.Logger
}

func NewSupplierController(supplierService *services.SupplierService, log *logger.Logger) *SupplierController {
	return &SupplierController{supplierService: supplierService, logger: log}
}

// GET /suppliers
func (sc *SupplierController) GetSuppliers(c *gin.Context) {
	suppliers, err := sc.supplierService.List(c.Request.Context())
	if err != nil {
		RespondError(c, sc.logger, err)
		return
	}
	respondData(c, http.StatusOK, suppliers)
}

// GET /suppliers/:id
func (sc *SupplierController) GetSupplier(c *gin.Context) {
	supplier, err := sc.supplierService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, sc.logger, err)
		return
	}
	respondData(c, http.StatusOK, supplier)
}

// POST /suppliers
func (sc *SupplierController) CreateSupplier(c *gin.Context) {
	var req services.SupplierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	supplier, err := sc.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, sc.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, MsgSupplierCreated, supplier)
}

// PUT /suppliers/:id
func (sc *SupplierController) UpdateSupplier(c *gin.Context) {
	var patch models.SupplierPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	supplier, err := sc.supplierService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondError(c, sc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgSupplierUpdated, supplier)
}

// DELETE /suppliers/:id
func (sc *SupplierController) DeleteSupplier(c *gin.Context) {
	if err := sc.supplierService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, sc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgSupplierDeleted, nil)
}
