package eventbus

import (
	"sync"
	"testing"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := New()

	var mu sync.Mutex
	var got []Event
	bus.Subscribe("workflow_started", func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	bus.Publish("workflow_started", map[string]interface{}{"workflow_id": "w1"})
	bus.Publish("unrelated", nil)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Name != "workflow_started" {
		t.Errorf("event name = %q", got[0].Name)
	}
	if got[0].Payload["workflow_id"] != "w1" {
		t.Errorf("payload workflow_id = %v", got[0].Payload["workflow_id"])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestWildcardReceivesAll(t *testing.T) {
	bus := New()

	count := 0
	bus.Subscribe(Wildcard, func(Event) { count++ })

	bus.Publish("a", nil)
	bus.Publish("b", nil)
	if count != 2 {
		t.Errorf("wildcard handler called %d times, want 2", count)
	}
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	bus := New()

	bus.Subscribe("evt", func(Event) { panic("bad listener") })
	called := false
	bus.Subscribe("evt", func(Event) { called = true })

	// Must not panic, and the second listener must still run.
	bus.Publish("evt", nil)
	if !called {
		t.Error("second listener not invoked after first panicked")
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := New()
	bus.Publish("nobody-listens", map[string]interface{}{"k": "v"})
}
