package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchampz/saas-bakery/internal/auth"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticRoles map[string]models.UserRole

func (s staticRoles) RoleOf(_ context.Context, userID string) (models.UserRole, error) {
	role, ok := s[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return role, nil
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	valid, _, err := tokens.GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)
	expired, _, err := auth.NewTokenManager("secret", time.Nanosecond).GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)
	time.Sleep(time.Second)

	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "Token de acesso ausente"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Token inválido"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token expirado"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeMessage(t, w))
			} else {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	roles := staticRoles{"admin-1": models.RoleAdmin, "baker-1": models.RoleBaker}

	r := gin.New()
	r.GET("/backup", RequireAuth(tokens), RequireRole(roles, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for user, want := range map[string]int{"admin-1": http.StatusOK, "baker-1": http.StatusForbidden, "ghost": http.StatusForbidden} {
		token, _, err := tokens.GenerateToken(user, user+"@example.com")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/backup", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, user)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", RateLimit("2-M", "test", "Muitas tentativas", nil, logger.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "Muitas tentativas", decodeMessage(t, w))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
