package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/eyrcvb1844/VargiBots-Documentation/bridge"

	"github.com/gorilla/websocket"
)

// WebSocketService registers the /api/ws endpoint.
//
// A connection sends JSON Ops and receives the processed Op for each,
// plus every terminal goal Outcome that arrives while it's connected.
func (s *Service) WebSocketService(ctx context.Context) {
	var upgrader = websocket.Upgrader{} // use default options

	api := func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Service.WebSocketService connection")

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		ctl := make(chan bool)
		defer close(ctl)

		outcomes := make(chan bridge.Outcome, 32)
		id := c.RemoteAddr().String()
		s.conns.Store(id, outcomes)
		defer s.conns.Delete(id)

		go func() {
			for {
				select {
				case <-ctl:
					return
				case <-ctx.Done():
					return
				case o := <-outcomes:
					js, err := json.Marshal(&o)
					if err != nil {
						log.Printf("outcome Marshal error %v on %#v", err, o)
						continue
					}
					if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
						log.Println("outcome write:", err)
					}
				}
			}
		}()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read error", err)
				break
			}

			var op Op
			if err := json.Unmarshal(message, &op); err != nil {
				if err = c.WriteMessage(mt, []byte(`{"err":"can't parse"}`)); err != nil {
					log.Println("write (err)", err)
				}
				continue
			}

			if err = op.Do(ctx, s); err != nil {
				Logf("ws op error: %s", err)
				// Conveyed via op.Err.
			}

			js, err := json.Marshal(&op)
			if err != nil {
				log.Printf("op Marshal error %v on %#v", err, op)
				continue
			}
			if err = c.WriteMessage(mt, js); err != nil {
				log.Println("write:", err)
				break
			}
		}
	}

	http.HandleFunc("/api/ws", api)
}

// HTTPServer runs the HTTP listener that carries the WebSocket
// endpoint.
func (s *Service) HTTPServer(ctx context.Context, port string) error {
	log.Printf("HTTP service on %s", port)
	return http.ListenAndServe(port, nil)
}
