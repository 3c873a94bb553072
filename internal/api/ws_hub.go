package api

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lchampz/saas-bakery/internal/logger"
)

const hubBufferSize = 256

// Hub fans stock events out to every connected dashboard
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.RWMutex
	logger    *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, hubBufferSize),
		logger:    log,
	}
}

// Run delivers queued messages until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg []byte) {
	var failed []*websocket.Conn
	h.mutex.RLock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
			failed = append(failed, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range failed {
		h.logger.Debug("📴 Dropping websocket client after write error", "remote", client.RemoteAddr().String())
		h.RemoveClient(client)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mutex.Unlock()
}

// BroadcastMessage queues message for all clients. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) BroadcastMessage(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("⚠️ Websocket broadcast queue full, message dropped", "size", len(message))
	}
}

func (h *Hub) ClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
