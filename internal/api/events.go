package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

func (s *Server) publishRun(tenant, kind, runID string, extra map[string]any) {
	data := map[string]any{"runId": runID, "kind": kind}
	for k, v := range extra {
		data[k] = v
	}
	s.Broker.Publish(tenant, RunEvent{Type: EventRunCompleted, Data: data})
}

func (s *Server) publishFailure(tenant, kind string, err error) {
	s.Broker.Publish(tenant, RunEvent{Type: EventRunFailed, Data: map[string]any{"kind": kind, "error": err.Error()}})
}

var sseHeartbeat = 15 * time.Second

// RunEventsHandler streams the tenant's run events as server-sent events.
func (s *Server) RunEventsHandler(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	tenant := principal(r).Tenant
	ch, err := s.Broker.Subscribe(tenant)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Event stream unavailable", err.Error(), r.URL.Path)
		return
	}
	defer s.Broker.Unsubscribe(tenant, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected\n\n")
	fl.Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			fl.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(evt.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, b)
			fl.Flush()
		}
	}
}
