package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/pkg/logger"
	"github.com/jwalitptl/clinic-queue/pkg/metrics"
)

// Scope narrows what a subscriber receives. Zero fields act as
// wildcards, so an empty scope receives every event.
type Scope struct {
	HospitalID   uuid.UUID
	DoctorID     uuid.UUID
	DepartmentID uuid.UUID
}

// Client is one connected live display. Send is buffered; a slow
// consumer loses events rather than stalling the broadcast. A muted
// client stays connected but receives nothing until it resubscribes.
type Client struct {
	ID    string
	Send  chan []byte
	Scope Scope
	muted bool
}

// Hub fans visit events out to subscribed displays.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// SubscribeMessage is the inbound control frame from a display.
type SubscribeMessage struct {
	Action       string    `json:"action"`
	HospitalID   uuid.UUID `json:"hospital_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	DepartmentID uuid.UUID `json:"department_id"`
}

func NewHub(logger *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	if h.metrics != nil {
		h.metrics.RealtimeSubscribers.Set(float64(len(h.clients)))
	}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	if h.metrics != nil {
		h.metrics.RealtimeSubscribers.Set(float64(len(h.clients)))
	}
}

func (h *Hub) UpdateScope(client *Client, scope Scope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Scope = scope
	client.muted = false
}

// Mute stops delivery without dropping the connection. An unsubscribed
// display must never fall back to the wildcard scope: that would widen
// its view to every hospital instead of closing it.
func (h *Hub) Mute(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.muted = true
}

// Broadcast delivers the payload to every client whose scope matches.
// Delivery is best effort: a full send buffer drops the frame for that
// client only.
func (h *Hub) Broadcast(payload []byte, meta Scope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.muted || !match(client.Scope, meta) {
			continue
		}
		select {
		case client.Send <- payload:
			h.countPush("sent")
		default:
			h.countPush("dropped")
			h.logger.Warn("dropped realtime frame for slow client", "client_id", client.ID)
		}
	}
}

func (h *Hub) countPush(status string) {
	if h.metrics != nil {
		h.metrics.RealtimePushes.WithLabelValues(status).Inc()
	}
}

func match(sub Scope, meta Scope) bool {
	if sub.HospitalID != uuid.Nil && meta.HospitalID != sub.HospitalID {
		return false
	}
	if sub.DoctorID != uuid.Nil && meta.DoctorID != sub.DoctorID {
		return false
	}
	if sub.DepartmentID != uuid.Nil && meta.DepartmentID != sub.DepartmentID {
		return false
	}
	return true
}

// ParseSubscribe validates an inbound control frame.
func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
