package events

import (
	"testing"
	"time"

	"github.com/tickwise/cortex/internal/core"
)

func decisionAt(t float64) DecisionEvent {
	return DecisionEvent{
		AgentID:   "agent-1",
		T:         t,
		Mode:      "fast_plan",
		Action:    core.MoveTo(3, 3),
		Timestamp: time.Now(),
	}
}

func TestLocalBusFanOut(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe(4)
	ch2, cancel2 := bus.Subscribe(4)
	defer cancel1()
	defer cancel2()

	if err := bus.Publish(decisionAt(1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i, ch := range []<-chan DecisionEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.T != 1 {
				t.Errorf("subscriber %d: t = %v, want 1", i, ev.T)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event delivered", i)
		}
	}
}

func TestLocalBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// The second publish must not block even though nobody is reading.
	done := make(chan struct{})
	go func() {
		bus.Publish(decisionAt(1))
		bus.Publish(decisionAt(2))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	ev := <-ch
	if ev.T != 1 {
		t.Errorf("t = %v, want the first event retained", ev.T)
	}
}

func TestLocalBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if err := bus.Publish(decisionAt(1)); err != nil {
		t.Errorf("Publish after unsubscribe: %v", err)
	}
}

func TestLocalBusCloseIsIdempotent(t *testing.T) {
	bus := NewLocalBus()
	ch, _ := bus.Subscribe(1)

	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if err := bus.Publish(decisionAt(1)); err != nil {
		t.Errorf("Publish after Close: %v", err)
	}
}
