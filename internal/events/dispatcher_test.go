package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventChamadoCriado, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventChamadoCriado, func(ctx context.Context, e Event) error {
		calls = append(calls, "second:"+e.ChamadoID)
		return nil
	})
	d.Subscribe(EventChamadoStatusAlterado, func(ctx context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventChamadoCriado, ChamadoID: "abc"})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined boom, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second:abc" {
		t.Errorf("calls = %v", calls)
	}
}

func TestDispatcherNoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventChamadoStatusAlterado}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
