package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestInMemoryBusPublishSyncRunsAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	calls := 0
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return errors.New("boom")
	}))
	bus.Subscribe("other.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		t.Error("handler for other event should not run")
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestInMemoryBusPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(nil)

	done := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestInMemoryBusPublishDetachesCancellation(t *testing.T) {
	bus := NewInMemoryBus(nil)

	errCh := make(chan error, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		errCh <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("handler context should not be canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}
