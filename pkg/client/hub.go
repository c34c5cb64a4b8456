package client

import (
	"sync"

	"mentorship/backend/pkg/mentorship"
)

// ProfileTopic is the hub topic carrying the viewer's Profile.
const ProfileTopic uint = 0

// Event types published on the hub.
const (
	EventPair    = "pair"
	EventProfile = "profile"
)

// Event is a view change published to subscribers. Pair is set for
// EventPair, Profile for EventProfile.
type Event struct {
	Type    string               `json:"type"`
	Topic   uint                 `json:"topic"`
	Pair    *mentorship.PairView `json:"pair,omitempty"`
	Profile *mentorship.Profile  `json:"profile,omitempty"`
}

// Subscriber receives events for one topic.
type Subscriber chan Event

// Hub fans view changes out to subscribers. Topics are counterparty user
// ids, or ProfileTopic for the aggregate view.
type Hub struct {
	topics map[uint]map[Subscriber]bool
	mu     sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[uint]map[Subscriber]bool),
	}
}

// Subscribe adds a subscriber to a topic.
func (h *Hub) Subscribe(topic uint, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[Subscriber]bool)
	}
	h.topics[topic][sub] = true
}

// Unsubscribe removes a subscriber from a topic and closes it.
func (h *Hub) Unsubscribe(topic uint, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

// Topics returns every topic with at least one subscriber.
func (h *Hub) Topics() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]uint, 0, len(h.topics))
	for topic := range h.topics {
		out = append(out, topic)
	}
	return out
}

// Publish sends an event to all subscribers of its topic without blocking
// and returns how many subscribers missed it because their buffer was full.
func (h *Hub) Publish(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	missed := 0
	for sub := range h.topics[event.Topic] {
		select {
		case sub <- event:
		default:
			missed++
		}
	}
	return missed
}
