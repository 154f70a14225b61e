package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roadsense/autobrake/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	t.Cleanup(func() {
		h.Close()
		<-done
	})
	return h
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	h := newRunningHub(t)

	a := h.Register()
	b := h.Register()

	event := models.StatusEvent{AgentID: "vehicle-1", Time: time.Now()}
	h.Broadcast(event)

	for _, client := range []*Client{a, b} {
		select {
		case got := <-client.Events():
			assert.Equal(t, "vehicle-1", got.AgentID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestUnregisterClosesClient(t *testing.T) {
	h := newRunningHub(t)

	client := h.Register()
	h.Unregister(client)

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok, "channel must be closed after unregister")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := newRunningHub(t)

	client := h.Register()
	// Fill the buffer without draining; the next broadcast drops the
	// client instead of blocking the hub.
	for i := 0; i < 17; i++ {
		h.Broadcast(models.StatusEvent{AgentID: "vehicle-1"})
	}

	deadline := time.After(time.Second)
	received := 0
	for {
		select {
		case _, ok := <-client.Events():
			if !ok {
				require.LessOrEqual(t, received, 16)
				return
			}
			received++
		case <-deadline:
			t.Fatal("client channel was never closed")
		}
	}
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	client := h.Register()
	h.Close()
	<-done

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
}
