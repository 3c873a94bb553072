package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/ledger"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
)

// RecipeController exposes recipe CRUD plus prepare and scale
type RecipeController struct {
	recipeService *services.RecipeService
	logger        *logger.Logger
}

func NewRecipeController(recipeService *services.RecipeService, log *logger.Logger) *RecipeController {
	return &RecipeController{recipeService: recipeService, logger: log}
}

// GET /recipes
func (rc *RecipeController) GetRecipes(c *gin.Context) {
	recipes, err := rc.recipeService.List(c.Request.Context())
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GET /recipes/:id
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	recipe, err := rc.recipeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// POST /recipes
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	var req services.RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	recipe, err := rc.recipeService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// PUT /recipes/:id
func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	var patch models.RecipePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	recipe, err := rc.recipeService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DELETE /recipes/:id
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	if err := rc.recipeService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /recipes/:id/prepare?qty=2
func (rc *RecipeController) PrepareRecipe(c *gin.Context) {
	qty, err := strconv.ParseFloat(c.DefaultQuery("qty", "1"), 64)
	if err != nil {
		respondBadRequest(c, ledger.MsgInvalidQuantity)
		return
	}

	result, err := rc.recipeService.Prepare(c.Request.Context(), c.Param("id"), qty)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

type scaleRequest struct {
	Multiplier float64 `json:"multiplier"`
}

// POST /recipes/:id/scale
func (rc *RecipeController) ScaleRecipe(c *gin.Context) {
	var req scaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ledger.MsgInvalidMultiplier)
		return
	}

	result, err := rc.recipeService.Scale(c.Request.Context(), c.Param("id"), req.Multiplier)
	if err != nil {
		RespondError(c, rc.logger, err)
		return
	}
	respondData(c, http.StatusOK, result)
}
