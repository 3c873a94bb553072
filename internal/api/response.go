package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
)

const (
	MsgInvalidBody     = "Dados inválidos"
	MsgInternalError   = "Erro interno do servidor"
	MsgRouteNotFound   = "Rota não encontrada"
	MsgIntegrityBroken = "Produto não encontrado"
)

// envelope is the JSON body of every non-bare response; empty fields are omitted
type envelope struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message,omitempty"`
	Data              interface{}        `json:"data,omitempty"`
	Pagination        interface{}        `json:"pagination,omitempty"`
	InsufficientItems []apperr.Shortfall `json:"insufficientItems,omitempty"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument, apperr.KindInsufficientStock, apperr.KindDataIntegrity:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as {success:false, message}. Internal errors are logged
// with their cause and reach the client only as a generic message.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	body := envelope{Success: false}

	appErr, ok := apperr.As(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("❌ Request error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		body.Message = MsgInternalError
		if ok && appErr.Message != "" {
			body.Message = appErr.Message
		}
	case kind == apperr.KindDataIntegrity:
		log.Warn("⚠️ Data integrity error", "path", c.Request.URL.Path, "error", err)
		body.Message = MsgIntegrityBroken
	default:
		body.Message = appErr.Message
		if kind == apperr.KindInsufficientStock {
			body.InsufficientItems = appErr.Shortfalls
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: message})
}

// NotFound answers unknown routes in the API envelope
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, envelope{Success: false, Message: MsgRouteNotFound + ": " + c.Request.URL.Path})
}
