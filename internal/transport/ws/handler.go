package ws

import (
	"context"
	"net/http"
	"time"

	"voicepanels/internal/insights"
	"voicepanels/internal/model"
	"voicepanels/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// PanelResolver confirms a panel exists before a dashboard subscribes
type PanelResolver interface {
	ResolvePanel(ctx context.Context, ref model.PanelRef) (*model.Panel, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	auth     middleware.TokenValidator
	panels   PanelResolver
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHandler creates a new WebSocket handler. allowedOrigins of nil or
// containing "*" accepts any origin.
func NewHandler(hub *Hub, auth middleware.TokenValidator, panels PanelResolver, allowedOrigins []string, log *logrus.Entry) *Handler {
	return &Handler{
		hub:    hub,
		auth:   auth,
		panels: panels,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// PanelWS handles GET /v1/ws/panels/{panelId}
func (h *Handler) PanelWS(w http.ResponseWriter, r *http.Request) {
	panelID := mux.Vars(r)["panelId"]
	token := middleware.TokenFromRequest(r)

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateHostToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if panelID != AllPanels {
		if _, err := h.panels.ResolvePanel(r.Context(), model.PanelRef{ID: panelID}); err != nil {
			if insights.IsNotFound(err) {
				http.Error(w, "panel not found", http.StatusNotFound)
				return
			}
			h.log.WithError(err).Warn("panel lookup failed")
			http.Error(w, "panel lookup failed", http.StatusBadGateway)
			return
		}
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		PanelID: panelID,
		HostID:  claims.HostID,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// readPump only drains control frames; dashboards never send data
func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Debug("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
