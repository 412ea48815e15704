package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch, err := b.Subscribe("t1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	evt := RunEvent{Type: "run.completed", Data: map[string]any{"runId": "r1"}}
	b.Publish("t1", evt)
	b.Publish("t2", RunEvent{Type: "other"})

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["runId"] != "r1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected event from another topic: %+v", got)
	default:
	}

	b.Unsubscribe("t1", ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// second unsubscribe must not double-close
	b.Unsubscribe("t1", ch)
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch, _ := b.Subscribe("t1")
	for i := 0; i < 20; i++ {
		b.Publish("t1", RunEvent{Type: "run.completed"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer: got %d, want %d", len(ch), cap(ch))
	}
	b.Unsubscribe("t1", ch)
}
