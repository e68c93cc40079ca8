package relay

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultChatMaxLen bounds relayed chat messages, in runes.
const DefaultChatMaxLen = 100

// Client is one connected peer: an opaque connection id plus the
// buffered channel its websocket writer drains.
type Client struct {
	ID   string
	Send chan []byte
}

// NewClient creates a client with a buffered send channel.
func NewClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 64)}
}

// Dispatcher is the protocol surface. All room and index mutation
// happens on the single goroutine running Run, so none of the relay
// state needs locking: one inbound event is processed to completion
// before the next.
type Dispatcher struct {
	store      *Store
	logger     *log.Logger
	chatMaxLen int

	clients    map[string]*Client
	events     chan Event
	register   chan *Client
	unregister chan *Client
}

// NewDispatcher creates a dispatcher over the given store.
func NewDispatcher(store *Store, logger *log.Logger, chatMaxLen int) *Dispatcher {
	if chatMaxLen <= 0 {
		chatMaxLen = DefaultChatMaxLen
	}
	return &Dispatcher{
		store:      store,
		logger:     logger,
		chatMaxLen: chatMaxLen,
		clients:    make(map[string]*Client),
		events:     make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and inbound events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-d.register:
			d.addClient(c)
		case c := <-d.unregister:
			d.removeClient(c)
		case evt := <-d.events:
			d.process(evt)
		}
	}
}

// Register hands a new connection to the dispatcher goroutine.
func (d *Dispatcher) Register(c *Client) { d.register <- c }

// Unregister removes a connection; a disconnect is handled exactly like
// an explicit leave, then the send channel is closed.
func (d *Dispatcher) Unregister(c *Client) { d.unregister <- c }

// Dispatch queues one inbound event for processing.
func (d *Dispatcher) Dispatch(evt Event) { d.events <- evt }

func (d *Dispatcher) addClient(c *Client) {
	d.clients[c.ID] = c
}

func (d *Dispatcher) removeClient(c *Client) {
	if _, ok := d.clients[c.ID]; !ok {
		return
	}
	d.leave(c.ID)
	delete(d.clients, c.ID)
	close(c.Send)
}

// process applies one inbound event. Malformed or out-of-state events
// are dropped without a reply; the only surfaced failure is a join.
func (d *Dispatcher) process(evt Event) {
	switch evt.Type {
	case EvCreateRoom:
		d.handleCreateRoom(evt)
	case EvJoinRoom:
		d.handleJoinRoom(evt)
	case EvSelectCharacter:
		d.handleSelectCharacter(evt)
	case EvSelectArena:
		d.handleSelectArena(evt)
	case EvPlayerReady:
		d.handlePlayerReady(evt)
	case EvPlayerInput:
		d.relayToOpponent(evt, EvOpponentInput)
	case EvStateSync:
		d.handleStateSync(evt)
	case EvRoundEnd:
		d.relayToOpponent(evt, EvRoundEnd)
	case EvMatchEnd:
		d.handleMatchEnd(evt)
	case EvRematchRequest:
		d.handleRematchRequest(evt)
	case EvRematchDecline:
		d.handleRematchDecline(evt)
	case EvChat:
		d.handleChat(evt)
	case EvLeaveRoom:
		d.leave(evt.From)
	default:
		d.logger.Debug("dropping unknown event", "type", evt.Type)
	}
}

func (d *Dispatcher) handleCreateRoom(evt Event) {
	if _, ok := d.store.RoomFor(evt.From); ok {
		return // already in a room
	}
	room := d.store.CreateRoom(evt.From)
	d.logger.Info("room created", "code", room.Code, "rooms", d.store.Count())
	d.send(evt.From, EvRoomCreated, roomCreatedPayload{Code: room.Code})
}

// handleJoinRoom takes the room code as a bare string payload,
// case-insensitively.
func (d *Dispatcher) handleJoinRoom(evt Event) {
	var code string
	if err := json.Unmarshal(evt.Payload, &code); err != nil {
		return
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if current, ok := d.store.RoomFor(evt.From); ok {
		// Joining your own room is a surfaced error; joining anything
		// else while already seated is dropped.
		if current.Code == code {
			d.send(evt.From, EvJoinError, errorPayload{Message: ErrSelfJoin.Error()})
		}
		return
	}
	room, err := d.store.JoinRoom(code, evt.From)
	if err != nil {
		d.send(evt.From, EvJoinError, errorPayload{Message: err.Error()})
		return
	}
	d.logger.Info("guest joined", "code", room.Code)
	d.send(evt.From, EvRoomJoined, roomJoinedPayload{Code: room.Code, IsHost: false})
	d.send(room.HostID, EvGuestJoined, nil)
	d.send(room.HostID, EvStartSelection, nil)
	d.send(room.GuestID, EvStartSelection, nil)
}

func (d *Dispatcher) handleSelectCharacter(evt Event) {
	room, role, ok := d.roomAndRole(evt.From)
	if !ok || room.State == StateFinished {
		return
	}
	var p characterPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		return
	}
	room.SetCharacter(role, p.Character)
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvOpponentCharacter, characterPayload{Character: p.Character})
	}
}

func (d *Dispatcher) handleSelectArena(evt Event) {
	room, role, ok := d.roomAndRole(evt.From)
	if !ok || role != RoleHost {
		return // arena is host-only, guest attempts are dropped
	}
	var p arenaPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		return
	}
	room.Arena = p.Arena
	d.send(room.HostID, EvArenaSelected, arenaPayload{Arena: p.Arena})
	if room.GuestID != "" {
		d.send(room.GuestID, EvArenaSelected, arenaPayload{Arena: p.Arena})
	}
}

func (d *Dispatcher) handlePlayerReady(evt Event) {
	room, role, ok := d.roomAndRole(evt.From)
	if !ok || room.State != StateSelecting {
		return
	}
	room.SetReady(role)
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvOpponentReady, nil)
	}
	if room.BothReady() && room.BothChosen() {
		room.Start()
		d.logger.Info("match started", "code", room.Code, "arena", room.Arena)
		d.sendMatchStart(room, EvMatchStart)
	}
}

func (d *Dispatcher) handleStateSync(evt Event) {
	room, role, ok := d.roomAndRole(evt.From)
	if !ok || role != RoleHost || room.GuestID == "" {
		return
	}
	room.GameState = evt.Payload
	d.send(room.GuestID, EvStateUpdate, json.RawMessage(evt.Payload))
}

func (d *Dispatcher) handleMatchEnd(evt Event) {
	room, _, ok := d.roomAndRole(evt.From)
	if !ok {
		return
	}
	room.Finish()
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvMatchEnd, json.RawMessage(evt.Payload))
	}
}

func (d *Dispatcher) handleRematchRequest(evt Event) {
	room, role, ok := d.roomAndRole(evt.From)
	if !ok || room.State != StateFinished {
		return
	}
	room.SetReady(role)
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvRematchRequested, nil)
	}
	if room.BothReady() {
		room.Start()
		d.logger.Info("rematch started", "code", room.Code)
		d.sendMatchStart(room, EvRematchStart)
	}
}

// handleRematchDecline relays the decline and discards any pending
// accept. The room stays finished.
func (d *Dispatcher) handleRematchDecline(evt Event) {
	room, _, ok := d.roomAndRole(evt.From)
	if !ok {
		return
	}
	if room.State == StateFinished {
		room.ClearReady()
	}
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvRematchDeclined, nil)
	}
}

func (d *Dispatcher) handleChat(evt Event) {
	room, _, ok := d.roomAndRole(evt.From)
	if !ok {
		return
	}
	var text string
	if err := json.Unmarshal(evt.Payload, &text); err != nil {
		return
	}
	if runes := []rune(text); len(runes) > d.chatMaxLen {
		text = string(runes[:d.chatMaxLen])
	}
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, EvChat, chatPayload{From: evt.From, Text: text})
	}
}

// relayToOpponent forwards an opaque payload verbatim, without
// interpreting it. Used for inputs and round-end signals.
func (d *Dispatcher) relayToOpponent(evt Event, outType string) {
	room, _, ok := d.roomAndRole(evt.From)
	if !ok {
		return
	}
	if opp, ok := room.Opponent(evt.From); ok {
		d.send(opp, outType, json.RawMessage(evt.Payload))
	}
}

// leave applies the leave semantics for both the explicit leaveRoom
// event and a disconnect.
func (d *Dispatcher) leave(connID string) {
	room, role, ok := d.store.Leave(connID)
	if !ok {
		return
	}
	if role == RoleHost {
		d.logger.Info("room closed", "code", room.Code, "rooms", d.store.Count())
		if room.GuestID != "" {
			d.send(room.GuestID, EvRoomClosed, nil)
		}
		return
	}
	d.logger.Info("guest left", "code", room.Code)
	d.send(room.HostID, EvGuestLeft, nil)
}

func (d *Dispatcher) sendMatchStart(room *Room, outType string) {
	p := matchStartPayload{
		HostCharacter:  room.HostCharacter,
		GuestCharacter: room.GuestCharacter,
		Arena:          room.Arena,
	}
	d.send(room.HostID, outType, p)
	d.send(room.GuestID, outType, p)
}

func (d *Dispatcher) roomAndRole(connID string) (*Room, Role, bool) {
	room, ok := d.store.RoomFor(connID)
	if !ok {
		return nil, "", false
	}
	role, ok := room.RoleOf(connID)
	return room, role, ok
}

// send marshals an envelope into a client's buffered channel. Emission
// is fire and forget: a peer that stopped draining its channel loses
// the message rather than stalling the dispatcher.
func (d *Dispatcher) send(connID, msgType string, payload any) {
	c, ok := d.clients[connID]
	if !ok {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			d.logger.Error("marshal payload", "type", msgType, "err", err)
			return
		}
		raw = p
	}
	msg, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		d.logger.Error("marshal envelope", "type", msgType, "err", err)
		return
	}
	select {
	case c.Send <- msg:
	default:
		d.logger.Warn("send buffer full, dropping", "conn", connID, "type", msgType)
	}
}
