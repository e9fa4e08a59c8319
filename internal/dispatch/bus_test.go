package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"callmanager/internal/registry"
)

func TestPublish_RunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []string

	bus.Subscribe(func(ctx context.Context, ev Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), Event{EntityType: "subject_consent"})
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected handler order: %v", order)
	}
}

func TestPublish_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)
	var ran []string

	bus.Subscribe(func(ctx context.Context, ev Event) error {
		ran = append(ran, "bad")
		return errors.New("handler boom")
	})
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		ran = append(ran, "good")
		return nil
	})

	bus.Publish(context.Background(), Event{EntityType: "subject_consent"})
	if len(ran) != 2 || ran[1] != "good" {
		t.Fatalf("failure stopped later handlers: %v", ran)
	}
}

func TestPublish_DeliversEventFields(t *testing.T) {
	bus := NewBus(nil)
	sent := Event{
		EntityType: registry.EventType("subject_death"),
		IsNew:      true,
		SubjectRef: "S-001",
		EntityDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}

	var got Event
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		got = ev
		return nil
	})

	bus.Publish(context.Background(), sent)
	if got.EntityType != sent.EntityType || got.SubjectRef != sent.SubjectRef ||
		!got.IsNew || !got.EntityDate.Equal(sent.EntityDate) {
		t.Fatalf("event mutated in transit: %+v", got)
	}
}
