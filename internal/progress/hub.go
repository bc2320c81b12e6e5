package progress

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names a sync lifecycle event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventDrawSaved EventType = "draw_saved"
	EventDrawFail  EventType = "draw_failed"
	EventRetrying  EventType = "retrying"
	EventFinished  EventType = "finished"
)

// Event is one progress notification.
type Event struct {
	Type     EventType `json:"type"`
	SyncID   string    `json:"syncId"`
	DrawNo   int       `json:"drawNo,omitempty"`
	Expected int       `json:"expected,omitempty"`
	Inserted int       `json:"inserted,omitempty"`
	Failed   int       `json:"failed,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher accepts events. A nil Publisher is not valid; use Discard.
type Publisher interface {
	Publish(ev Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Subscriber queue sizing.
const (
	subscriberInitial = 16
	subscriberLimit   = 1024
)

// Hub broadcasts events to every subscriber. It remembers the last event so
// late subscribers see the current state first.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	last   *Event
	logger *slog.Logger
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscription is one subscriber's view of the hub.
type Subscription struct {
	hub    *Hub
	events *Queue[Event]
	once   sync.Once
}

// Next blocks until an event arrives. It returns false after Close.
func (s *Subscription) Next() (Event, bool) {
	return s.events.Receive()
}

// Close unsubscribes. Pending Next calls return false.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		s.events.Close()
	})
}

// Dropped returns how many events this subscriber lost to overflow.
func (s *Subscription) Dropped() int64 {
	return s.events.Stats().Dropped
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub:    h,
		events: NewQueue[Event](subscriberInitial, subscriberLimit),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	if h.last != nil {
		sub.events.Send(*h.last)
	}
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("progress subscriber added", "subscribers", n)
	return sub
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	h.last = &ev
	for sub := range h.subs {
		sub.events.Send(ev)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
