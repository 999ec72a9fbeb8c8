package sse

import (
	"strings"
	"testing"
	"time"
)

func TestSubscribePublishUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	if got := b.ClientCount(); got != 1 {
		t.Fatalf("ClientCount = %d, want 1", got)
	}

	b.Publish(EventNotesChanged)
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: notes.changed") {
			t.Errorf("msg = %q", msg)
		}
		if !strings.Contains(string(msg), "data: {}") {
			t.Errorf("msg should carry an empty payload: %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	b.Unsubscribe(ch)
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish(EventTagsChanged)

	for _, ch := range []chan []byte{a, c} {
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), EventTagsChanged) {
				t.Errorf("msg = %q", msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestCloseIsIdempotentAndClosesClients(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed, not delivering")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed")
	}

	// Post-close calls are safe no-ops.
	b.Publish(EventNotesChanged)
	b.Unsubscribe(ch)
	if got := b.ClientCount(); got != 0 {
		t.Errorf("ClientCount after close = %d", got)
	}
}
