package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lchampz/saas-bakery/internal/logger"
)

// WSController serves the live stock feed
type WSController struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWSController accepts browser connections only from the comma separated
// frontendURL origins. An empty frontendURL allows any origin.
func NewWSController(hub *Hub, frontendURL string, log *logger.Logger) *WSController {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}
	return &WSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log,
	}
}

// GET /ws/stock
func (wc *WSController) ServeStock(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("⚠️ Websocket upgrade failed", "error", err)
		return
	}

	wc.hub.AddClient(conn)
	wc.logger.Info("📱 Stock feed client connected", "clients", wc.hub.ClientsCount())
	defer func() {
		wc.hub.RemoveClient(conn)
		wc.logger.Info("📱 Stock feed client disconnected", "clients", wc.hub.ClientsCount())
	}()

	// clients only send pings; reading keeps the close handshake working
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wc.logger.Warn("⚠️ Websocket read error", "error", err)
			}
			return
		}
	}
}
