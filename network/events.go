package network

import "github.com/wfunc/battleship/models"

// Outbound payloads, one per event type.

type Registered struct {
	Name      string `json:"name"`
	Index     string `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

type GameCreated struct {
	IDGame   string `json:"idGame"`
	IDPlayer string `json:"idPlayer"`
}

// FleetsAccepted carries the receiving player's own fleet.
type FleetsAccepted struct {
	Ships              []models.Ship `json:"ships"`
	CurrentPlayerIndex string        `json:"currentPlayerIndex"`
}

type AttackResult struct {
	Position      models.Cell         `json:"position"`
	CurrentPlayer string              `json:"currentPlayer"`
	Status        models.AttackResult `json:"status"`
}

type Turn struct {
	CurrentPlayer string `json:"currentPlayer"`
}

type GameFinished struct {
	WinPlayer string `json:"winPlayer"`
}

type Error struct {
	ErrorText string `json:"errorText"`
}
