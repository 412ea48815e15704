package api

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newMiniBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	b := newRedisBroker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedisBrokerRoundTrip(t *testing.T) {
	b := newMiniBroker(t)
	ch, err := b.Subscribe("t1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	b.Publish("t1", RunEvent{Type: "run.completed", Data: map[string]any{"runId": "r1", "cost": 12.5}})

	select {
	case got := <-ch:
		if got.Type != "run.completed" || got.Data["runId"] != "r1" {
			t.Fatalf("bad event: %+v", got)
		}
		// numbers come back through JSON as float64
		if got.Data["cost"].(float64) != 12.5 {
			t.Fatalf("bad cost: %+v", got.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("t1", ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url", nil); err == nil {
		t.Fatal("expected error for bad url")
	}
}
