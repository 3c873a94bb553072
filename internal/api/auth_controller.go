package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/middleware"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgUserCreated  = "Usuário criado com sucesso"
	MsgLoginSuccess = "Login realizado com sucesso"
)

type AuthController struct {
	authService *services.AuthService
	logger      *logger.Logger
}

func NewAuthController(authService *services.AuthService, log *logger.Logger) *AuthController {
	return &AuthController{authService: authService, logger: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	user, err := ac.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, ac.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, MsgUserCreated, gin.H{"user": user})
}

// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, MsgInvalidBody)
		return
	}

	result, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, ac.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgLoginSuccess, result)
}

// GET /auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.authService.Me(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		RespondError(c, ac.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"user": user})
}
