package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgProductCreated  = "Produto criado com sucesso"
	MsgProductUpdated  = "Produto atualizado com sucesso"
	MsgProductDeleted  = "Produto removido com sucesso"
	MsgImportFinished  = "Importação concluída"
	MsgImportFileEmpty = "Arquivo não enviado"
	maxImportSize      = 5 << 20
)

// ProductController manages the stock catalog
type ProductController struct {
	productService *services.ProductService
	logger         *logger.Logger
}

func NewProductController(productService *services.ProductService, log *logger.Logger) *ProductController {
	return &ProductController{productService: productService, logger: log}
}

// GET /products?page=1&limit=10&sortBy=name&sortOrder=asc
func (pc *ProductController) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	req := services.PageRequest{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	products, pagination, err := pc.productService.List(c.Request.Context(), req)
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: products, Pagination: pagination})
}

// GET /products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

// POST /products
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	product, err := pc.productService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, MsgProductCreated, product)
}

// PUT /products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	product, err := pc.productService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgProductUpdated, product)
}

// DELETE /products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.productService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgProductDeleted, nil)
}

// POST /products/import (multipart, field "file", .csv or .xlsx)
func (pc *ProductController) ImportProducts(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, MsgImportFileEmpty)
		return
	}
	if header.Size > maxImportSize {
		respondBadRequest(c, "Arquivo muito grande (máximo 5MB)")
		return
	}
	file, err := header.Open()
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	defer file.Close()

	result, err := pc.productService.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		RespondError(c, pc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgImportFinished, result)
}
