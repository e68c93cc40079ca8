package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"arcade/internal/relay"
)

// maxMessageSize caps inbound frames. Relayed payloads are opaque, so
// this bound is the only cost control on them.
const maxMessageSize = 32 << 10

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.logger.Warn("websocket accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	conn.SetReadLimit(maxMessageSize)
	ctx := r.Context()

	client := relay.NewClient(uuid.NewString())
	s.dispatcher.Register(client)
	s.logger.Debug("client connected", "conn", client.ID)

	// Writer goroutine: drain the dispatcher's send channel until it is
	// closed by Unregister.
	go func() {
		for msg := range client.Send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: every inbound frame becomes one dispatcher event.
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var env relay.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			continue // malformed frames are dropped, not errored
		}
		s.dispatcher.Dispatch(relay.Event{From: client.ID, Type: env.Type, Payload: env.Payload})
	}

	// Disconnect is handled exactly like an explicit leave.
	s.dispatcher.Unregister(client)
	s.logger.Debug("client disconnected", "conn", client.ID)
}
