package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHubBroadcastSkipsWithNoSubscribers(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Broadcast(Event{Type: EventRequestStarted, RequestID: "r1"})
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubRegisterAndUnregister(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	sub := &subscriber{id: "s1", send: make(chan []byte, 4)}
	h.register <- sub
	assert.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast(Event{Type: EventRequestFinished, RequestID: "r1"})
	select {
	case msg := <-sub.send:
		assert.Contains(t, string(msg), "request_finished")
	case <-time.After(time.Second):
		t.Fatal("expected broadcast message")
	}

	h.unregister <- sub
	assert.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}
