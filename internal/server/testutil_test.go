package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"nhooyr.io/websocket"

	"arcade/internal/catalog"
	"arcade/internal/leaderboard"
	"arcade/internal/logging"
	"arcade/internal/relay"
)

// --- Test environment ---

type testEnv struct {
	ts *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvLimited(t, time.Minute, 10000)
}

func setupTestEnvLimited(t *testing.T, window time.Duration, maxRequests int) *testEnv {
	t.Helper()
	scores, err := leaderboard.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { scores.Close() })

	dispatcher := relay.NewDispatcher(relay.NewStore(), logging.Discard(), 100)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>arcade</body></html>")},
	}
	srv := New(catalog.Default(), scores, dispatcher, logging.Discard(), webFS, window, maxRequests)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- WebSocket helpers ---

// Outbound payload shapes, mirrored from the wire protocol.

type codePayload struct {
	Code   string `json:"code"`
	IsHost bool   `json:"isHost"`
}

type matchStartMsg struct {
	HostCharacter  string `json:"hostCharacter"`
	GuestCharacter string `json:"guestCharacter"`
	Arena          string `json:"arena"`
}

type chatMsg struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type errorMsg struct {
	Message string `json:"message"`
}

func wsDial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	return conn
}

func sendEnv(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = p
	}
	data, err := json.Marshal(relay.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func readEnv(ctx context.Context, t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var env relay.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

// expectEnv reads one message and fails unless it has the wanted type.
func expectEnv(ctx context.Context, t *testing.T, conn *websocket.Conn, want string) relay.Envelope {
	t.Helper()
	env := readEnv(ctx, t, conn)
	if env.Type != want {
		t.Fatalf("expected %q, got %q: %s", want, env.Type, string(env.Payload))
	}
	return env
}

// createRoomWS creates a room over the wire and returns its code.
func createRoomWS(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	sendEnv(ctx, t, conn, relay.EvCreateRoom, nil)
	env := expectEnv(ctx, t, conn, relay.EvRoomCreated)
	var p codePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal roomCreated: %v", err)
	}
	return p.Code
}

// pairUp creates a room on host, joins guest, and consumes all join
// traffic on both connections.
func pairUp(ctx context.Context, t *testing.T, host, guest *websocket.Conn) string {
	t.Helper()
	code := createRoomWS(ctx, t, host)
	sendEnv(ctx, t, guest, relay.EvJoinRoom, code)
	expectEnv(ctx, t, guest, relay.EvRoomJoined)
	expectEnv(ctx, t, host, relay.EvGuestJoined)
	expectEnv(ctx, t, host, relay.EvStartSelection)
	expectEnv(ctx, t, guest, relay.EvStartSelection)
	return code
}

// intoMatch walks a paired host and guest through selection into a
// running match, consuming every message along the way.
func intoMatch(ctx context.Context, t *testing.T, host, guest *websocket.Conn) {
	t.Helper()
	sendEnv(ctx, t, host, relay.EvSelectCharacter, map[string]string{"character": "blaze"})
	expectEnv(ctx, t, guest, relay.EvOpponentCharacter)
	sendEnv(ctx, t, guest, relay.EvSelectCharacter, map[string]string{"character": "viper"})
	expectEnv(ctx, t, host, relay.EvOpponentCharacter)

	sendEnv(ctx, t, host, relay.EvPlayerReady, nil)
	expectEnv(ctx, t, guest, relay.EvOpponentReady)
	sendEnv(ctx, t, guest, relay.EvPlayerReady, nil)
	expectEnv(ctx, t, host, relay.EvOpponentReady)

	expectEnv(ctx, t, host, relay.EvMatchStart)
	expectEnv(ctx, t, guest, relay.EvMatchStart)
}
