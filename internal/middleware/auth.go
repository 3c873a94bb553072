package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/auth"
	"github.com/lchampz/saas-bakery/internal/models"
)

// Context keys set by RequireAuth
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// TokenParser verifies a bearer token
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// RoleLookup resolves the current role of a user id
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (models.UserRole, error)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Token de acesso ausente")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := tokens.ParseToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token expirado")
				return
			}
			abortUnauthorized(c, "Token inválido")
			return
		}

		c.Set(ContextUserID, claims.UserID())
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// RequireRole lets through only users holding one of roles. It must run after
// RequireAuth.
func RequireRole(lookup RoleLookup, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortUnauthorized(c, "Token de acesso ausente")
			return
		}
		role, err := lookup.RoleOf(c.Request.Context(), userID)
		if err != nil || !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Acesso negado. Apenas administradores podem realizar esta operação.",
			})
			return
		}
		c.Next()
	}
}
