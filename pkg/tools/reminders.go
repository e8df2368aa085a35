package tools

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reminder bounds accepted by the remind tool, in seconds.
const (
	MinReminderDelay = 1
	MaxReminderDelay = 86400
)

// reminderSet tracks pending reminder timers so shutdown can cancel them.
type reminderSet struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newReminderSet() *reminderSet {
	return &reminderSet{timers: make(map[string]*time.Timer)}
}

// schedule runs fn after d, unless the set is shut down first.
func (r *reminderSet) schedule(d time.Duration, fn func()) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ""
	}
	id := uuid.New().String()
	r.timers[id] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, id)
		stopped := r.stopped
		r.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	return id
}

// shutdown cancels all pending reminders.
func (r *reminderSet) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
