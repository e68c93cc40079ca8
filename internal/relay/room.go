package relay

import (
	"encoding/json"
	"errors"
)

// State is the room lifecycle.
type State string

const (
	StateWaiting   State = "waiting"
	StateSelecting State = "selecting"
	StatePlaying   State = "playing"
	StateFinished  State = "finished"
)

// Role identifies a participant within a room.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Join errors surfaced to the requesting client.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrSelfJoin     = errors.New("cannot join your own room")
)

// DefaultArena is used until the host picks one.
const DefaultArena = "temple"

// Room is one two-player match session. It is owned by the dispatcher
// goroutine and is never mutated from anywhere else, so it carries no lock.
type Room struct {
	Code           string
	HostID         string
	GuestID        string
	HostCharacter  string
	GuestCharacter string
	Arena          string
	State          State
	HostReady      bool
	GuestReady     bool
	GameState      json.RawMessage // last host snapshot, relayed not interpreted
}

// NewRoom creates a room in the waiting state with the given host.
func NewRoom(code, hostID string) *Room {
	return &Room{
		Code:   code,
		HostID: hostID,
		Arena:  DefaultArena,
		State:  StateWaiting,
	}
}

// RoleOf returns the role of a connection within the room.
func (r *Room) RoleOf(connID string) (Role, bool) {
	switch connID {
	case r.HostID:
		return RoleHost, true
	case r.GuestID:
		if connID == "" {
			return "", false
		}
		return RoleGuest, true
	}
	return "", false
}

// Opponent returns the other participant's connection id, if present.
func (r *Room) Opponent(connID string) (string, bool) {
	switch connID {
	case r.HostID:
		return r.GuestID, r.GuestID != ""
	case r.GuestID:
		return r.HostID, true
	}
	return "", false
}

// SetCharacter records a character pick for the given role.
func (r *Room) SetCharacter(role Role, character string) {
	if role == RoleHost {
		r.HostCharacter = character
	} else {
		r.GuestCharacter = character
	}
}

// SetReady marks one side ready (used both for match start and rematch).
func (r *Room) SetReady(role Role) {
	if role == RoleHost {
		r.HostReady = true
	} else {
		r.GuestReady = true
	}
}

// BothReady reports whether host and guest have both signaled ready.
func (r *Room) BothReady() bool {
	return r.HostReady && r.GuestReady
}

// BothChosen reports whether both sides have a non-empty character pick.
func (r *Room) BothChosen() bool {
	return r.HostCharacter != "" && r.GuestCharacter != ""
}

// ClearReady resets both ready flags. Called on every state transition.
func (r *Room) ClearReady() {
	r.HostReady = false
	r.GuestReady = false
}

// BeginSelection moves the room to selecting once a guest is seated.
func (r *Room) BeginSelection(guestID string) {
	r.GuestID = guestID
	r.State = StateSelecting
	r.ClearReady()
}

// Start moves the room to playing. Valid from selecting (match start)
// and from finished (rematch).
func (r *Room) Start() {
	r.State = StatePlaying
	r.ClearReady()
}

// Finish marks the match over.
func (r *Room) Finish() {
	r.State = StateFinished
	r.ClearReady()
}

// EvictGuest clears all guest-side fields and reverts the room to
// waiting, regardless of prior state. Both selections are dropped so a
// stale pick never leaks into the next pairing.
func (r *Room) EvictGuest() {
	r.GuestID = ""
	r.GuestCharacter = ""
	r.HostCharacter = ""
	r.GameState = nil
	r.State = StateWaiting
	r.ClearReady()
}
