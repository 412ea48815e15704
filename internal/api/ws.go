package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Run events over WebSocket, using the graphql-transport-ws message flow:
// connection_init -> connection_ack, subscribe -> next* -> complete.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscribePayload optionally narrows a subscription to some event types.
type subscribePayload struct {
	Types []string `json:"types"`
}

var (
	wsReadTimeout = 60 * time.Second
	wsPingEvery   = 20 * time.Second
)

// RunEventsWSHandler handles GET /v1/runs/ws
func (s *Server) RunEventsWSHandler(w http.ResponseWriter, r *http.Request) {
	tenant := principal(r).Tenant
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// gorilla connections allow a single concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(v)
	}

	subs := map[string]chan RunEvent{}
	var wg sync.WaitGroup
	defer func() {
		for id, ch := range subs {
			s.Broker.Unsubscribe(tenant, ch)
			delete(subs, id)
		}
		wg.Wait()
	}()

	done := make(chan struct{})
	defer close(done)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })

	initialized := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		switch msg.Type {
		case "connection_init":
			if initialized {
				continue
			}
			initialized = true
			_ = write(wsMessage{Type: "connection_ack"})
			go func() {
				ticker := time.NewTicker(wsPingEvery)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						if err := write(wsMessage{Type: "ping"}); err != nil {
							return
						}
					}
				}
			}()
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			if !initialized || msg.ID == "" {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`[{"message":"connection_init and id required"}]`)})
				continue
			}
			if _, dup := subs[msg.ID]; dup {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`[{"message":"subscription id already in use"}]`)})
				continue
			}
			var pl subscribePayload
			if len(msg.Payload) > 0 {
				_ = json.Unmarshal(msg.Payload, &pl)
			}
			ch, err := s.Broker.Subscribe(tenant)
			if err != nil {
				s.Logger.Warn("ws subscribe", "tenant", tenant, "err", err)
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`[{"message":"event stream unavailable"}]`)})
				continue
			}
			subs[msg.ID] = ch
			wg.Add(1)
			go func(id string, c chan RunEvent, types []string) {
				defer wg.Done()
				for evt := range c {
					if !wantsType(types, evt.Type) {
						continue
					}
					payload, _ := json.Marshal(map[string]any{"data": map[string]any{"runEvents": evt}})
					if err := write(wsMessage{Type: "next", ID: id, Payload: payload}); err != nil {
						return
					}
				}
				_ = write(wsMessage{Type: "complete", ID: id})
			}(msg.ID, ch, pl.Types)
		case "complete":
			if ch, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(tenant, ch)
				delete(subs, msg.ID)
			}
		}
	}
}

func wantsType(types []string, t string) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
