package handler

import (
	"database/sql"
	"net/http"
	"time"

	"garage_config/internal/realtime"

	"github.com/gin-gonic/gin"
)

type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

type HealthHandler struct {
	db       *sql.DB // nil when running on the in-memory store
	storage  string
	realtime string
	hub      *realtime.Hub
}

func NewHealthHandler(db *sql.DB, storage, realtimeMode string, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{db: db, storage: storage, realtime: realtimeMode, hub: hub}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"storage":   h.storage,
		"realtime":  h.realtime,
		"clients":   h.hub.ClientCount(),
		"timestamp": time.Now().UTC(),
	}
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["details"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
