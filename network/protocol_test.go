package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/battleship/models"
)

func frame(t *testing.T, msgType string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(Envelope{Type: msgType, Data: string(data)})
	require.NoError(t, err)
	return b
}

func TestDecode_Register(t *testing.T) {
	req, err := Decode(frame(t, "register", map[string]string{"name": "Alice", "password": "pw1"}))
	require.NoError(t, err)
	assert.Equal(t, RegisterRequest{Name: "Alice", Password: "pw1"}, req)

	_, err = Decode(frame(t, "register", map[string]string{"name": "Alice"}))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecode_Aliases(t *testing.T) {
	req, err := Decode(frame(t, "reg", map[string]string{"name": "A", "password": "B"}))
	require.NoError(t, err)
	assert.Equal(t, MsgTypeRegister, req.MessageType())

	req, err = Decode([]byte(`{"type":"create_room","data":"","id":0}`))
	require.NoError(t, err)
	assert.Equal(t, CreateRoomRequest{}, req)

	req, err = Decode(frame(t, "add_user_to_room", map[string]string{"indexRoom": "r1"}))
	require.NoError(t, err)
	assert.Equal(t, JoinRoomRequest{RoomID: "r1"}, req)
}

func TestDecode_PayloadFieldAndBareObject(t *testing.T) {
	req, err := Decode([]byte(`{"type":"joinRoom","payload":"{\"roomId\":\"r2\"}"}`))
	require.NoError(t, err)
	assert.Equal(t, JoinRoomRequest{RoomID: "r2"}, req)

	req, err = Decode([]byte(`{"type":"joinRoom","data":{"roomId":"r3"}}`))
	require.NoError(t, err)
	assert.Equal(t, JoinRoomRequest{RoomID: "r3"}, req)
}

func TestDecode_SubmitFleet(t *testing.T) {
	payload := `{"gameId":"g","indexPlayer":"p","ships":[` +
		`{"position":{"x":1,"y":2},"direction":true,"length":3,"type":"large"},` +
		`{"position":{"x":5,"y":5},"direction":"horizontal","length":1,"type":"small"}]}`
	req, err := Decode(frame(t, "add_ships", json.RawMessage(payload)))
	require.NoError(t, err)

	fleet, ok := req.(SubmitFleetRequest)
	require.True(t, ok)
	assert.Equal(t, "g", fleet.GameID)
	assert.Equal(t, "p", fleet.InGamePlayerID)
	require.Len(t, fleet.Ships, 2)
	assert.Equal(t, models.Vertical, fleet.Ships[0].Direction)
	assert.Equal(t, models.Cell{X: 1, Y: 2}, fleet.Ships[0].Position)
	assert.Equal(t, models.Horizontal, fleet.Ships[1].Direction)
}

func TestDecode_Attack(t *testing.T) {
	req, err := Decode(frame(t, "attack", map[string]any{"gameId": "g", "inGamePlayerId": "p", "x": 0, "y": 9}))
	require.NoError(t, err)
	assert.Equal(t, AttackRequest{GameID: "g", InGamePlayerID: "p", X: 0, Y: 9}, req)

	_, err = Decode(frame(t, "attack", map[string]any{"gameId": "g", "inGamePlayerId": "p", "x": 1}))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	req, err = Decode(frame(t, "randomAttack", map[string]any{"gameId": "g", "indexPlayer": "p"}))
	require.NoError(t, err)
	assert.Equal(t, RandomAttackRequest{GameID: "g", InGamePlayerID: "p"}, req)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = Decode([]byte(`{"type":"dance","data":"{}"}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Decode([]byte(`{"type":"joinRoom","data":"{broken"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = Decode([]byte(`{"type":"attack"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(MsgTypeTurn, map[string]string{"currentPlayer": "p"})
	require.NoError(t, err)

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"turn","data":"{\"currentPlayer\":\"p\"}","id":0}`, string(b))
}
