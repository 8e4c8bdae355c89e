package server

import "encoding/json"

// ClientMessage is one inbound frame. Type selects the intent; Data
// carries the intent-specific payload. RequestID, when set, is echoed
// on the direct response so clients can correlate.
type ClientMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Inbound intent types.
const (
	MsgHello       = "hello"
	MsgPing        = "ping"
	MsgCreateRoom  = "create_room"
	MsgJoinRoom    = "join_room"
	MsgLeaveRoom   = "leave_room"
	MsgSetReady    = "set_ready"
	MsgLaunchMatch = "launch_match"

	MsgRoll          = "roll"
	MsgBuyProperty   = "buy_property"
	MsgDeclineBuy    = "decline_buy"
	MsgPayRent       = "pay_rent"
	MsgUpgrade       = "upgrade_property"
	MsgSkipUpgrade   = "skip_upgrade"
	MsgChallengeDuel = "challenge_duel"
	MsgSubmitDuel    = "submit_duel_code"
	MsgEndTurn       = "end_turn"
)

// Outbound frame types.
const (
	MsgWelcome    = "welcome"
	MsgPong       = "pong"
	MsgRoomState  = "room_state"
	MsgMatchState = "match_state"
	MsgEvent      = "event"
	MsgRollResult = "roll_result"
	MsgDuelResult = "duel_submission_result"
	MsgError      = "error"
	MsgAck        = "ack"
)

// HelloPayload identifies the connecting player.
type HelloPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// JoinRoomPayload names the room to join.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

// ReadyPayload flags readiness in the lobby.
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// CodePayload carries a coding-problem solution for buy, upgrade and
// duel intents. The server judges the code; clients never report
// pass/fail themselves.
type CodePayload struct {
	SpaceID  string `json:"spaceId,omitempty"`
	Language string `json:"language"`
	Code     string `json:"code"`
}
