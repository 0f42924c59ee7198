package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Hub maneja las conexiones WebSocket del feed de eventos de sesión.
// El dashboard de operación se suscribe a /ws/events y recibe el ciclo de
// vida de las sesiones en tiempo real.
type hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var defaultHub *hub

func init() {
	defaultHub = &hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]bool),
	}
	go defaultHub.run()
}

func (h *hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Cliente de eventos conectado. Total: %d", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Cliente de eventos desconectado. Total: %d", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket registra una conexión de Fiber en el hub y la mantiene
// viva hasta que el cliente cierre.
func HandleWebSocket(conn *websocket.Conn) {
	defaultHub.register <- conn

	defer func() {
		defaultHub.unregister <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// SessionEvent es el payload que recibe el dashboard.
type SessionEvent struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind"` // "broadcast" | "mutual"
	SessionID string    `json:"session_id"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

// Eventos publicados por los engines.
const (
	EventTrackingStarted = "tracking_started"
	EventTrackingStopped = "tracking_stopped"
	EventTrackingExpired = "tracking_expired"
	EventSessionCreated  = "session_created"
	EventSessionEnded    = "session_ended"
)

// Publish difunde un evento de sesión a los clientes conectados.
// Best-effort: sin clientes no hace nada, con el canal lleno descarta.
func Publish(eventType, kind, sessionID, actor string) {
	if defaultHub == nil || defaultHub.clientCount() == 0 {
		return
	}

	data, err := json.Marshal(SessionEvent{
		Type:      eventType,
		Kind:      kind,
		SessionID: sessionID,
		Actor:     actor,
		At:        time.Now(),
	})
	if err != nil {
		return
	}

	select {
	case defaultHub.broadcast <- data:
	default:
		// Canal lleno, saltar mensaje
	}
}
