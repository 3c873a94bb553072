package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgRecipeGenerated = "Receita gerada com sucesso"
	MsgRecipeCreated   = "Receita criada com sucesso"
)

type AIRecipeController struct {
	aiService *services.AIRecipeService
	logger    *logger.Logger
}

func NewAIRecipeController(aiService *services.AIRecipeService, log *logger.Logger) *AIRecipeController {
	return &AIRecipeController{aiService: aiService, logger: log}
}

// POST /ai-recipes/generate
func (ac *AIRecipeController) Generate(c *gin.Context) {
	var req services.GenerateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	draft, err := ac.aiService.Generate(c.Request.Context(), req)
	if err != nil {
		RespondError(c, ac.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgRecipeGenerated, draft)
}

// POST /ai-recipes/create
func (ac *AIRecipeController) Create(c *gin.Context) {
	var req services.AICreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	recipe, err := ac.aiService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, ac.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, MsgRecipeCreated, recipe)
}
