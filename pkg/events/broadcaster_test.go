package events

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	t.Run("frame carries event name and session id", func(t *testing.T) {
		frame, err := EncodeFrame("sess-1", StreamDelta{ContentIndex: 0, Text: "hi"})
		require.NoError(t, err)

		s := string(frame)
		assert.True(t, strings.HasPrefix(s, "event: stream_delta\ndata: "), s)
		assert.True(t, strings.HasSuffix(s, "\n\n"), s)

		payload := strings.TrimSuffix(strings.TrimPrefix(s, "event: stream_delta\ndata: "), "\n\n")
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
		assert.Equal(t, "sess-1", decoded["session_id"])
		assert.Equal(t, "hi", decoded["content"])
		assert.Equal(t, float64(0), decoded["content_index"])
	})

	t.Run("ping frame is a keepalive", func(t *testing.T) {
		frame, err := EncodeFrame("sess-1", Ping{})
		require.NoError(t, err)
		assert.Contains(t, string(frame), "event: ping\n")
		assert.Contains(t, string(frame), `"type":"keepalive"`)
	})
}

func TestBroadcaster(t *testing.T) {
	logger := slog.Default()

	t.Run("delivers to all subscribers of a session", func(t *testing.T) {
		b := NewBroadcaster(logger)
		s1 := b.Register("sess-1")
		s2 := b.Register("sess-1")
		other := b.Register("sess-2")

		b.Broadcast("sess-1", MessageStart{})

		assert.Equal(t, MessageStart{}, (<-s1.C()).(MessageStart))
		assert.Equal(t, MessageStart{}, (<-s2.C()).(MessageStart))
		select {
		case ev := <-other.C():
			t.Fatalf("unexpected event on other session: %v", ev)
		default:
		}
	})

	t.Run("unregister closes the channel", func(t *testing.T) {
		b := NewBroadcaster(logger)
		sub := b.Register("sess-1")
		b.Unregister("sess-1", sub)

		_, ok := <-sub.C()
		assert.False(t, ok)
		assert.Equal(t, 0, b.SubscriberCount("sess-1"))
	})

	t.Run("slow subscriber is dropped, not blocked on", func(t *testing.T) {
		b := NewBroadcaster(logger)
		sub := b.Register("sess-1")

		// Fill the buffer and then some; Broadcast must never block.
		for i := 0; i < subscriberBufferSize+10; i++ {
			b.Broadcast("sess-1", StreamDelta{Text: "x"})
		}

		drained := 0
		for {
			select {
			case <-sub.C():
				drained++
				continue
			default:
			}
			break
		}
		assert.Equal(t, subscriberBufferSize, drained)
	})

	t.Run("broadcast to session without subscribers is a no-op", func(t *testing.T) {
		b := NewBroadcaster(logger)
		b.Broadcast("nobody-home", MessageComplete{})
	})
}
