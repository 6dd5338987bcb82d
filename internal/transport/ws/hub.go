package ws

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// AllPanels subscribes a dashboard to every panel's events
const AllPanels = "all"

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection is one dashboard subscribed to a panel
type Connection struct {
	PanelID string
	HostID  string
	Send    chan []byte
}

type broadcastMessage struct {
	panelID string
	data    []byte
}

// Hub fans dashboard events out to the connections watching a panel
type Hub struct {
	conns map[string]map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan broadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	log *logrus.Entry
}

// NewHub creates a hub and starts its loop
func NewHub(log *logrus.Entry) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan broadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.PanelID] == nil {
				h.conns[conn.PanelID] = make(map[*Connection]struct{})
			}
			h.conns[conn.PanelID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"panel_id": conn.PanelID, "host_id": conn.HostID}).Info("dashboard connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.PanelID]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.conns, conn.PanelID)
					}
				}
			}
			h.mu.Unlock()
			h.log.WithField("panel_id", conn.PanelID).Info("dashboard disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			h.deliver(msg.panelID, msg.data)
			if msg.panelID != AllPanels {
				h.deliver(AllPanels, msg.data)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, subs := range h.conns {
				for conn := range subs {
					close(conn.Send)
				}
			}
			h.conns = make(map[string]map[*Connection]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// deliver drops the message for slow connections; caller holds the lock
func (h *Hub) deliver(panelID string, data []byte) {
	for conn := range h.conns[panelID] {
		select {
		case conn.Send <- data:
		default:
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Subscribers counts connections watching panelID directly
func (h *Hub) Subscribers(panelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[panelID])
}

// BroadcastToPanel sends a message to a panel's dashboards and to those
// watching all panels (implements service.Broadcaster)
func (h *Hub) BroadcastToPanel(panelID string, msgType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("type", msgType).Warn("dropping unencodable event")
		return
	}
	data, _ := json.Marshal(&Message{Type: msgType, Payload: body})

	select {
	case h.broadcast <- broadcastMessage{panelID: panelID, data: data}:
	case <-h.done:
	}
}

// Stop closes every connection and ends the loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
