package relay

import "encoding/json"

// Envelope is the wire format for every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EvCreateRoom      = "createRoom"
	EvJoinRoom        = "joinRoom"
	EvSelectCharacter = "selectCharacter"
	EvSelectArena     = "selectArena"
	EvPlayerReady     = "playerReady"
	EvPlayerInput     = "playerInput"
	EvStateSync       = "stateSync"
	EvRoundEnd        = "roundEnd"
	EvMatchEnd        = "matchEnd"
	EvRematchRequest  = "rematchRequest"
	EvRematchDecline  = "rematchDecline"
	EvChat            = "chat"
	EvLeaveRoom       = "leaveRoom"
)

// Outbound event types.
const (
	EvRoomCreated       = "roomCreated"
	EvRoomJoined        = "roomJoined"
	EvJoinError         = "joinError"
	EvGuestJoined       = "guestJoined"
	EvStartSelection    = "startSelection"
	EvOpponentCharacter = "opponentCharacter"
	EvArenaSelected     = "arenaSelected"
	EvOpponentReady     = "opponentReady"
	EvMatchStart        = "matchStart"
	EvOpponentInput     = "opponentInput"
	EvStateUpdate       = "stateUpdate"
	EvRematchRequested  = "rematchRequested"
	EvRematchDeclined   = "rematchDeclined"
	EvRematchStart      = "rematchStart"
	EvGuestLeft         = "guestLeft"
	EvRoomClosed        = "roomClosed"
)

// Event is one inbound message attributed to its sending connection.
type Event struct {
	From    string
	Type    string
	Payload json.RawMessage
}

type characterPayload struct {
	Character string `json:"character"`
}

type arenaPayload struct {
	Arena string `json:"arena"`
}

type roomCreatedPayload struct {
	Code string `json:"code"`
}

type roomJoinedPayload struct {
	Code   string `json:"code"`
	IsHost bool   `json:"isHost"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// matchStartPayload is sent to both peers on matchStart and rematchStart.
type matchStartPayload struct {
	HostCharacter  string `json:"hostCharacter"`
	GuestCharacter string `json:"guestCharacter"`
	Arena          string `json:"arena"`
}

type chatPayload struct {
	From string `json:"from"`
	Text string `json:"text"`
}
