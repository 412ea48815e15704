// Package main runs a demo WebSocket client for run events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "admin")

	// Store a small dataset
	body := []byte(`{"name":"square","points":[{"id":1,"x":0,"y":0},{"id":2,"x":10,"y":0},{"id":3,"x":10,"y":10},{"id":4,"x":0,"y":10},{"id":5,"x":5,"y":5}]}`)
	var ds struct {
		ID string `json:"id"`
	}
	if err := post(base+"/v1/datasets", hdr, body, &ds); err != nil {
		log.Fatal(err)
	}
	log.Printf("Dataset ID: %s", ds.ID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/runs/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: json.RawMessage(`{"types":["run.completed","run.failed"]}`)}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Trigger a run event by solving against the dataset
	time.Sleep(500 * time.Millisecond)
	var tsp struct {
		RunID string  `json:"runId"`
		Cost  float64 `json:"cost"`
	}
	req := fmt.Sprintf(`{"datasetId":%q,"start_id":1}`, ds.ID)
	if err := post(base+"/v1/tsp/euclidean", hdr, []byte(req), &tsp); err != nil {
		log.Fatal(err)
	}
	log.Printf("Run %s cost %.3f", tsp.RunID, tsp.Cost)

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}

func post(u string, hdr http.Header, body []byte, out any) error {
	req, _ := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	req.Header = hdr.Clone()
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", u, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
