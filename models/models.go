// models/models.go
package models

import (
	"encoding/json"
	"fmt"
)

// Player is a registered account. Wins only changes when a game concludes.
type Player struct {
	ID       string `json:"index"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Wins     int    `json:"wins"`
}

func (p *Player) Key() string { return p.ID }

// RoomCapacity is the number of players needed to start a game.
const RoomCapacity = 2

// RoomMember is the public view of a player waiting in a room.
type RoomMember struct {
	PlayerID string `json:"index"`
	Name     string `json:"name"`
}

// Room pairs up to RoomCapacity players before a game is created.
type Room struct {
	ID      string       `json:"roomId"`
	Members []RoomMember `json:"roomUsers"`
}

func (r *Room) Key() string { return r.ID }

// HasMember reports whether playerID is in the room.
func (r *Room) HasMember(playerID string) bool {
	for _, m := range r.Members {
		if m.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Full reports whether no further members can join.
func (r *Room) Full() bool {
	return len(r.Members) >= RoomCapacity
}

// Phase is a game's lifecycle position.
type Phase string

const (
	PhaseAwaitingFleets Phase = "awaitingFleets"
	PhaseInProgress     Phase = "inProgress"
	PhaseFinished       Phase = "finished"
)

// Game is a match between exactly two players. Finished games are kept so
// late requests referencing them can be told apart from unknown ids.
type Game struct {
	ID          string        `json:"idGame"`
	RoomID      string        `json:"roomId"`
	Players     [2]GamePlayer `json:"players"`
	CurrentTurn string        `json:"currentTurn"`
	Phase       Phase         `json:"phase"`
	Finished    bool          `json:"finished"`
	Winner      string        `json:"winner,omitempty"`
}

func (g *Game) Key() string { return g.ID }

// Player returns the in-game player with the given in-game id.
func (g *Game) Player(inGameID string) (*GamePlayer, bool) {
	for i := range g.Players {
		if g.Players[i].InGameID == inGameID {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// Opponent returns the in-game player that is not inGameID.
func (g *Game) Opponent(inGameID string) (*GamePlayer, bool) {
	if _, ok := g.Player(inGameID); !ok {
		return nil, false
	}
	for i := range g.Players {
		if g.Players[i].InGameID != inGameID {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// ByPlayerID returns the in-game player backed by the durable player id.
func (g *Game) ByPlayerID(playerID string) (*GamePlayer, bool) {
	for i := range g.Players {
		if g.Players[i].PlayerID == playerID {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// GamePlayer links a durable player to a game under an alias so clients
// never see the durable id during play.
type GamePlayer struct {
	PlayerID       string `json:"playerId"`
	InGameID       string `json:"idPlayerInGame"`
	Ships          []Ship `json:"ships,omitempty"`
	ShipsRemaining int    `json:"shipsLeft"`
}

// Ready reports whether the player's fleet has been placed.
func (p *GamePlayer) Ready() bool {
	return len(p.Ships) > 0
}

// Cell is a grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Orientation tells along which axis a ship extends from its origin.
type Orientation bool

const (
	Horizontal Orientation = false
	Vertical   Orientation = true
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// UnmarshalJSON accepts the boolean wire form (true is vertical) as well as
// "horizontal" and "vertical".
func (o *Orientation) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*o = Orientation(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("orientation: %w", err)
	}
	switch s {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("orientation: unknown value %q", s)
	}
	return nil
}

// Ship is a placed ship and the cells of it that have been struck.
type Ship struct {
	Position  Cell        `json:"position"`
	Direction Orientation `json:"direction"`
	Length    int         `json:"length"`
	Type      string      `json:"type,omitempty"`
	Hits      []Cell      `json:"hits,omitempty"`
}

// Cells lists the cells covered by the ship, starting at its origin.
func (s *Ship) Cells() []Cell {
	cells := make([]Cell, 0, s.Length)
	for i := 0; i < s.Length; i++ {
		c := s.Position
		if s.Direction == Vertical {
			c.Y += i
		} else {
			c.X += i
		}
		cells = append(cells, c)
	}
	return cells
}

// IsHit reports whether c has already been struck.
func (s *Ship) IsHit(c Cell) bool {
	for _, h := range s.Hits {
		if h == c {
			return true
		}
	}
	return false
}

// Killed reports whether every cell of the ship has been struck.
func (s *Ship) Killed() bool {
	return len(s.Hits) >= s.Length
}

// AttackResult is the outcome of a single shot.
type AttackResult string

const (
	Miss   AttackResult = "miss"
	Shot   AttackResult = "shot"
	Killed AttackResult = "killed"
)

// LeaderboardEntry is a player's public win count.
type LeaderboardEntry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}
