package messaging

import (
	"context"
	"testing"
	"time"

	"shora/contexts/council-governance/decision-engine/ports"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(nil)
	received := make(chan ports.EventEnvelope, 1)
	if err := bus.Subscribe(ctx, "decision.created", "test-group", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	event := ports.EventEnvelope{EventID: "evt-1", EventType: "decision.created", PlaceID: "place-1"}
	if err := bus.Publish(ctx, "decision.created", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "evt-1" || got.PlaceID != "place-1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for delivery")
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(nil)
	received := make(chan ports.EventEnvelope, 1)
	if err := bus.Subscribe(ctx, "decision.approved", "test-group", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, "decision.created", ports.EventEnvelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		t.Fatalf("subscriber received an event from another topic: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusUnsubscribesOnContextCancel(t *testing.T) {
	subCtx, cancel := context.WithCancel(context.Background())
	bus := NewBus(nil)

	delivered := make(chan struct{}, 8)
	if err := bus.Subscribe(subCtx, "decision.created", "test-group", func(_ context.Context, _ ports.EventEnvelope) error {
		delivered <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	cancel()

	// The consumer goroutine unregisters on cancellation; give it a moment.
	deadline := time.After(time.Second)
	for {
		bus.mu.RLock()
		remaining := len(bus.subscribers["decision.created"])
		bus.mu.RUnlock()
		if remaining == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("subscriber still registered after cancel")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := bus.Publish(context.Background(), "decision.created", ports.EventEnvelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case <-delivered:
		t.Fatalf("cancelled subscriber still received events")
	case <-time.After(100 * time.Millisecond):
	}
}
