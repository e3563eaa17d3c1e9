package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/battleship/models"
)

// Inbound request types. Older client names are accepted as aliases.
const (
	MsgTypeRegister     = "register"
	MsgTypeCreateRoom   = "createRoom"
	MsgTypeJoinRoom     = "joinRoom"
	MsgTypeSubmitFleet  = "submitFleet"
	MsgTypeAttack       = "attack"
	MsgTypeRandomAttack = "randomAttack"
)

// Outbound event types.
const (
	MsgTypeRegistered         = "registered"
	MsgTypeRoomsUpdated       = "roomsUpdated"
	MsgTypeLeaderboardUpdated = "leaderboardUpdated"
	MsgTypeGameCreated        = "gameCreated"
	MsgTypeFleetsAccepted     = "fleetsAccepted"
	MsgTypeAttackResult       = "attackResult"
	MsgTypeTurn               = "turn"
	MsgTypeGameFinished       = "gameFinished"
	MsgTypeError              = "error"
)

var aliases = map[string]string{
	"reg":              MsgTypeRegister,
	"create_room":      MsgTypeCreateRoom,
	"add_user_to_room": MsgTypeJoinRoom,
	"add_ships":        MsgTypeSubmitFleet,
}

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrUnknownType       = errors.New("unknown message type")
	ErrMalformedPayload  = errors.New("malformed payload")
)

// Envelope is the frame exchanged in both directions. Data carries the
// JSON-encoded payload as a string.
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
	ID   int    `json:"id"`
}

// UnmarshalJSON also accepts "payload" in place of "data".
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type    string          `json:"type"`
		Data    json.RawMessage `json:"data"`
		Payload json.RawMessage `json:"payload"`
		ID      int             `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	body := raw.Data
	if len(body) == 0 {
		body = raw.Payload
	}

	e.Type, e.ID, e.Data = raw.Type, raw.ID, ""
	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	// payload is normally a JSON string; a bare object is tolerated
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		e.Data = s
		return nil
	}
	e.Data = string(body)
	return nil
}

// NewEnvelope encodes payload into an outbound envelope.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Data: string(data)}, nil
}

// Request is a decoded inbound message; one of the *Request types below.
type Request interface {
	MessageType() string
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateRoomRequest struct{}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type SubmitFleetRequest struct {
	GameID         string        `json:"gameId"`
	InGamePlayerID string        `json:"inGamePlayerId"`
	Ships          []models.Ship `json:"ships"`
}

type AttackRequest struct {
	GameID         string `json:"gameId"`
	InGamePlayerID string `json:"inGamePlayerId"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
}

type RandomAttackRequest struct {
	GameID         string `json:"gameId"`
	InGamePlayerID string `json:"inGamePlayerId"`
}

func (RegisterRequest) MessageType() string     { return MsgTypeRegister }
func (CreateRoomRequest) MessageType() string   { return MsgTypeCreateRoom }
func (JoinRoomRequest) MessageType() string     { return MsgTypeJoinRoom }
func (SubmitFleetRequest) MessageType() string  { return MsgTypeSubmitFleet }
func (AttackRequest) MessageType() string       { return MsgTypeAttack }
func (RandomAttackRequest) MessageType() string { return MsgTypeRandomAttack }

// wire shapes that also accept the legacy field names
type joinRoomWire struct {
	RoomID    string `json:"roomId"`
	IndexRoom string `json:"indexRoom"`
}

type gamePlayerWire struct {
	GameID         string `json:"gameId"`
	InGamePlayerID string `json:"inGamePlayerId"`
	IndexPlayer    string `json:"indexPlayer"`
}

func (w gamePlayerWire) player() string {
	if w.InGamePlayerID != "" {
		return w.InGamePlayerID
	}
	return w.IndexPlayer
}

// Decode parses an envelope into its typed request.
func Decode(frame []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	msgType := env.Type
	if canonical, ok := aliases[msgType]; ok {
		msgType = canonical
	}

	switch msgType {
	case MsgTypeRegister:
		var req RegisterRequest
		if err := decodePayload(env.Data, &req); err != nil {
			return nil, err
		}
		if req.Name == "" || req.Password == "" {
			return nil, fmt.Errorf("%w: name and password are required", ErrMalformedPayload)
		}
		return req, nil

	case MsgTypeCreateRoom:
		return CreateRoomRequest{}, nil

	case MsgTypeJoinRoom:
		var w joinRoomWire
		if err := decodePayload(env.Data, &w); err != nil {
			return nil, err
		}
		req := JoinRoomRequest{RoomID: w.RoomID}
		if req.RoomID == "" {
			req.RoomID = w.IndexRoom
		}
		if req.RoomID == "" {
			return nil, fmt.Errorf("%w: roomId is required", ErrMalformedPayload)
		}
		return req, nil

	case MsgTypeSubmitFleet:
		var w struct {
			gamePlayerWire
			Ships []models.Ship `json:"ships"`
		}
		if err := decodePayload(env.Data, &w); err != nil {
			return nil, err
		}
		req := SubmitFleetRequest{GameID: w.GameID, InGamePlayerID: w.player(), Ships: w.Ships}
		if err := requireGamePlayer(req.GameID, req.InGamePlayerID); err != nil {
			return nil, err
		}
		return req, nil

	case MsgTypeAttack:
		var w struct {
			gamePlayerWire
			X *int `json:"x"`
			Y *int `json:"y"`
		}
		if err := decodePayload(env.Data, &w); err != nil {
			return nil, err
		}
		if err := requireGamePlayer(w.GameID, w.player()); err != nil {
			return nil, err
		}
		if w.X == nil || w.Y == nil {
			return nil, fmt.Errorf("%w: x and y are required", ErrMalformedPayload)
		}
		return AttackRequest{GameID: w.GameID, InGamePlayerID: w.player(), X: *w.X, Y: *w.Y}, nil

	case MsgTypeRandomAttack:
		var w gamePlayerWire
		if err := decodePayload(env.Data, &w); err != nil {
			return nil, err
		}
		if err := requireGamePlayer(w.GameID, w.player()); err != nil {
			return nil, err
		}
		return RandomAttackRequest{GameID: w.GameID, InGamePlayerID: w.player()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

func decodePayload(data string, v any) error {
	if data == "" {
		return fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func requireGamePlayer(gameID, playerID string) error {
	if gameID == "" || playerID == "" {
		return fmt.Errorf("%w: gameId and inGamePlayerId are required", ErrMalformedPayload)
	}
	return nil
}
