package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/app"
	"github.com/yourusername/tubescribe/internal/domain"
)

// EventWebSocketHandler streams a slot's job events over WebSocket.
// Each connection gets its own subscription; a connection too slow to
// keep up is evicted by the hub rather than stalling the job.
type EventWebSocketHandler struct {
	orchestrator *app.Orchestrator
	logger       *zap.Logger
}

// NewEventWebSocketHandler creates a new event stream handler
func NewEventWebSocketHandler(orchestrator *app.Orchestrator, logger *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// eventFrame is the wire shape of one event
type eventFrame struct {
	Type    domain.EventType `json:"type"`
	JobID   string           `json:"job_id"`
	Payload any              `json:"payload"`
}

// HandleWebSocket handles GET /api/v1/events/:slot
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	slot := domain.Slot(c.Param("slot"))

	sub, err := h.orchestrator.Subscribe(slot)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.orchestrator.Unsubscribe(slot, sub)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Event stream client connected",
		zap.String("slot", string(slot)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Read messages from client (for ping/pong and close detection)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				// Hub evicted this subscriber
				return
			}
			frame := eventFrame{
				Type:    event.Type(),
				JobID:   event.Job(),
				Payload: event,
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
