package events

import (
	"log/slog"
	"sync"
)

const subscriberBufferSize = 1024

// Subscriber receives one session's events. Read from C until it is closed.
type Subscriber struct {
	ch        chan Event
	closeOnce sync.Once
}

// C returns the subscriber's event channel.
func (s *Subscriber) C() <-chan Event {
	return s.ch
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Broadcaster fans out executor events to zero or more subscribers per
// session. The executor is the sole publisher for a session; subscribers
// are UI stream handlers.
type Broadcaster struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logger,
		subs:   make(map[string]map[*Subscriber]struct{}),
	}
}

// Register adds a subscriber for a session.
func (b *Broadcaster) Register(sessionID string) *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBufferSize)}
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*Subscriber]struct{})
	}
	b.subs[sessionID][sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unregister removes a subscriber and closes its channel.
func (b *Broadcaster) Unregister(sessionID string, sub *Subscriber) {
	b.mu.Lock()
	if set, ok := b.subs[sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sessionID)
		}
	}
	b.mu.Unlock()
	sub.close()
}

// Broadcast delivers an event to every subscriber of the session. A
// subscriber that cannot accept the event is dropped.
func (b *Broadcaster) Broadcast(sessionID string, ev Event) {
	b.mu.RLock()
	set := b.subs[sessionID]
	subs := make([]*Subscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("dropping slow event subscriber",
				"session_id", sessionID,
				"event_type", ev.EventType())
			b.Unregister(sessionID, sub)
		}
	}
}

// SubscriberCount returns the number of subscribers for a session.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
