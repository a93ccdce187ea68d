package app

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
)

//go:embed dashboard.html
var dashboardHTML embed.FS

// maxRecentEvents bounds the history served by /api/events.
const maxRecentEvents = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served on the local network
	},
}

// RunWeb subscribes to the lock topics and serves the dashboard page at /
// with its API: GET /api/status, GET /api/events and a /ws live feed.
func RunWeb() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	d := newDashboard()
	if err := d.subscribe(client, cfg.TopicLockStatus, cfg.TopicLockEvents); err != nil {
		return err
	}

	mux := d.routes()

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// wsMessage is what /ws clients receive.
type wsMessage struct {
	Type   string       `json:"type"`
	Event  *lock.Event  `json:"event,omitempty"`
	Status *lock.Status `json:"status,omitempty"`
}

// dashboard keeps the latest status and recent events seen on MQTT.
type dashboard struct {
	mu         sync.RWMutex
	status     lock.Status
	haveStatus bool
	events     []lock.Event

	hub *wsHub
}

func newDashboard() *dashboard {
	return &dashboard{hub: newWSHub()}
}

func (d *dashboard) subscribe(client mqtt.Client, statusTopic, eventsTopic string) error {
	subs := map[string]func([]byte){
		statusTopic: d.handleStatus,
		eventsTopic: d.handleEvent,
	}
	for topic, handle := range subs {
		token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handle(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("web: subscribe %s: %w", topic, token.Error())
		}
		log.Printf("web: subscribed to MQTT topic %s", topic)
	}
	return nil
}

func (d *dashboard) handleStatus(payload []byte) {
	var st lock.Status
	if err := json.Unmarshal(payload, &st); err != nil {
		log.Printf("web: status unmarshal error: %v", err)
		return
	}
	d.mu.Lock()
	d.status = st
	d.haveStatus = true
	d.mu.Unlock()

	d.hub.broadcast(wsMessage{Type: "status", Status: &st})
}

func (d *dashboard) handleEvent(payload []byte) {
	var ev lock.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("web: event unmarshal error: %v", err)
		return
	}
	d.mu.Lock()
	d.events = append(d.events, ev)
	if len(d.events) > maxRecentEvents {
		d.events = d.events[len(d.events)-maxRecentEvents:]
	}
	d.mu.Unlock()

	d.hub.broadcast(wsMessage{Type: "event", Event: &ev})
}

func (d *dashboard) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", serveDashboard)
	mux.HandleFunc("/api/status", d.serveStatus)
	mux.HandleFunc("/api/events", d.serveEvents)
	mux.HandleFunc("/ws", d.serveWS)
	return mux
}

func serveDashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, dashboardHTML, "dashboard.html")
}

func (d *dashboard) serveStatus(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	st, ok := d.status, d.haveStatus
	d.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (d *dashboard) serveEvents(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	events := make([]lock.Event, len(d.events))
	copy(events, d.events)
	d.mu.RUnlock()

	writeJSON(w, events)
}

func (d *dashboard) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	d.mu.RLock()
	st, ok := d.status, d.haveStatus
	d.mu.RUnlock()
	if ok {
		if err := conn.WriteJSON(wsMessage{Type: "status", Status: &st}); err != nil {
			conn.Close()
			return
		}
	}
	d.hub.add(conn)

	// Drain the client so close frames are seen.
	go func() {
		defer d.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// wsHub fans messages out to the connected websocket clients. Writes are
// serialized by the hub lock.
type wsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *wsHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *wsHub) broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("web: websocket marshal error: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
