package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/pkg/events"
)

type sendRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (r *sendRecorder) send(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, ev.EventType())
	return nil
}

func (r *sendRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.sent...)
}

func TestRelay_PingsOnlyAfterSilence(t *testing.T) {
	sub := make(chan events.Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &sendRecorder{}
	stopped := make(chan struct{})
	go func() {
		relay(ctx, sub, 100*time.Millisecond, rec.send, nil)
		close(stopped)
	}()

	// Steady traffic below the keepalive interval: every delivery resets the
	// silence clock, so no ping is emitted.
	for i := 0; i < 4; i++ {
		sub <- events.MessageComplete{}
		time.Sleep(30 * time.Millisecond)
	}
	assert.NotContains(t, rec.snapshot(), events.TypePing)

	// Then go silent; a ping arrives once the interval elapses.
	require.Eventually(t, func() bool {
		sent := rec.snapshot()
		return len(sent) > 0 && sent[len(sent)-1] == events.TypePing
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on context cancel")
	}
}

func TestRelay_StopsOnTerminalEvent(t *testing.T) {
	sub := make(chan events.Event, 2)
	sub <- events.MessageComplete{}

	rec := &sendRecorder{}
	relay(context.Background(), sub, time.Minute, rec.send, func(ev events.Event) bool {
		return ev.EventType() == events.TypeMessageComplete
	})
	assert.Equal(t, []string{events.TypeMessageComplete}, rec.snapshot())
}

func TestRelay_StopsWhenSubscriptionCloses(t *testing.T) {
	sub := make(chan events.Event)
	close(sub)

	rec := &sendRecorder{}
	relay(context.Background(), sub, time.Minute, rec.send, nil)
	assert.Empty(t, rec.snapshot())
}
