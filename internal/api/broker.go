package api

import (
	"sync"

	"routekit/internal/metrics"
)

// RunEvent is published on a tenant topic whenever a solver run finishes.
type RunEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// EventBroker fans run events out to subscribers of a topic. Subscribe
// returns a channel that is closed after Unsubscribe.
type EventBroker interface {
	Subscribe(topic string) (chan RunEvent, error)
	Unsubscribe(topic string, ch chan RunEvent)
	Publish(topic string, evt RunEvent)
}

// Broker is the in-process EventBroker. Slow subscribers drop events.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan RunEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan RunEvent]struct{}{}}
}

func (b *Broker) Subscribe(topic string) (chan RunEvent, error) {
	ch := make(chan RunEvent, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan RunEvent]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch, nil
}

func (b *Broker) Unsubscribe(topic string, ch chan RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

func (b *Broker) Publish(topic string, evt RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	metrics.BrokerEvents.WithLabelValues("memory").Inc()
}
