package remote

import (
	"encoding/json"
	"sync"
)

// Event is a message pushed to remote devices watching a cabinet.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event, marshalling the payload.
func NewEvent(eventType string, payload interface{}) Event {
	payloadBytes, _ := json.Marshal(payload)
	return Event{Type: eventType, Payload: payloadBytes}
}

// Subscriber receives events for one cabinet. Events arrive on C;
// a slow subscriber drops events rather than blocking the publisher.
type Subscriber struct {
	C         chan Event
	cabinetID string
}

// Hub fans cabinet events out to connected remote devices.
// WebSocket and SSE transports both read from Subscriber channels.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a listener for events on a cabinet.
func (h *Hub) Subscribe(cabinetID string) *Subscriber {
	sub := &Subscriber{
		C:         make(chan Event, 64),
		cabinetID: cabinetID,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[cabinetID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.subscribers[cabinetID] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sub.cabinetID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.cabinetID)
	}
	close(sub.C)
}

// Publish delivers an event to every subscriber of a cabinet.
func (h *Hub) Publish(cabinetID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[cabinetID] {
		select {
		case sub.C <- event:
		default:
			// Channel full, drop event
		}
	}
}

// SubscriberCount reports how many devices are watching a cabinet.
func (h *Hub) SubscriberCount(cabinetID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[cabinetID])
}
