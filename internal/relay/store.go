package relay

import (
	"crypto/rand"
	"strings"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Store is the authoritative registry of rooms plus the reverse index
// from connection id to room code. Both maps are owned by the
// dispatcher goroutine; the store itself is not safe for concurrent use.
type Store struct {
	rooms map[string]*Room
	conns map[string]string // connection id -> room code
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
		conns: make(map[string]string),
	}
}

// CreateRoom makes a new waiting room with a unique code and registers
// the host in the connection index. It cannot fail: the code space is
// large relative to the number of concurrent rooms.
func (s *Store) CreateRoom(hostID string) *Room {
	code := generateCode()
	for _, exists := s.rooms[code]; exists; _, exists = s.rooms[code] {
		code = generateCode()
	}
	room := NewRoom(code, hostID)
	s.rooms[code] = room
	s.conns[hostID] = code
	return room
}

// JoinRoom seats a guest in the room with the given code and moves it
// to selecting. Fails with ErrRoomNotFound, ErrRoomFull or ErrSelfJoin.
func (s *Store) JoinRoom(code, guestID string) (*Room, error) {
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.GuestID != "" {
		return nil, ErrRoomFull
	}
	if room.HostID == guestID {
		return nil, ErrSelfJoin
	}
	room.BeginSelection(guestID)
	s.conns[guestID] = code
	return room, nil
}

// Get returns a room by code.
func (s *Store) Get(code string) (*Room, bool) {
	room, ok := s.rooms[code]
	return room, ok
}

// RoomFor resolves the room a connection currently belongs to.
func (s *Store) RoomFor(connID string) (*Room, bool) {
	code, ok := s.conns[connID]
	if !ok {
		return nil, false
	}
	room, ok := s.rooms[code]
	return room, ok
}

// Leave removes a connection from its room. A leaving host destroys the
// room and evicts the guest from the index; a leaving guest reverts the
// room to waiting. Returns the affected room and the leaver's role, or
// ok=false when the connection was not in any room.
func (s *Store) Leave(connID string) (room *Room, role Role, ok bool) {
	room, found := s.RoomFor(connID)
	if !found {
		delete(s.conns, connID)
		return nil, "", false
	}
	role, _ = room.RoleOf(connID)
	delete(s.conns, connID)

	if role == RoleHost {
		if room.GuestID != "" {
			delete(s.conns, room.GuestID)
		}
		delete(s.rooms, room.Code)
		return room, RoleHost, true
	}
	room.EvictGuest()
	return room, RoleGuest, true
}

// Count returns the number of active rooms. There is no expiry policy:
// abandoned waiting rooms stay until their host disconnects, so the
// count is worth logging.
func (s *Store) Count() int {
	return len(s.rooms)
}

func generateCode() string {
	b := make([]byte, codeLength)
	rand.Read(b)
	var sb strings.Builder
	for _, c := range b {
		sb.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return sb.String()
}
