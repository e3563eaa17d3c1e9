package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/state"
	"github.com/wfunc/battleship/store"
)

// BoardSize is the width and height of the grid.
const BoardSize = 10

// StandardFleetSize is the ship count of a standard fleet: one 4-cell, two
// 3-cell, three 2-cell and four 1-cell ships.
const StandardFleetSize = 10

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrUnknownPlayer   = errors.New("player is not part of this game")
	ErrRoomNotReady    = errors.New("room needs two players")
	ErrFleetAlreadySet = errors.New("fleet already submitted")
	ErrEmptyFleet      = errors.New("fleet has no ships")
	ErrGameNotStarted  = errors.New("game has not started")
	ErrGameFinished    = errors.New("game is finished")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrOutOfBounds     = errors.New("cell is off the board")
)

// Engine runs games stored in the record store. Its methods are not atomic
// with respect to each other; callers serialize access per game.
type Engine struct {
	store     *store.Store
	lifecycle *state.Machine
	newID     func() string
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{
		store:     s,
		lifecycle: state.NewGameLifecycle(),
		newID:     uuid.NewString,
	}
}

// Game fetches a game by id.
func (e *Engine) Game(ctx context.Context, gameID string) (*models.Game, error) {
	g, err := e.store.Games.Get(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, err
}

// StartGame creates a game for a full room. The first member moves first.
func (e *Engine) StartGame(ctx context.Context, room *models.Room) (*models.Game, error) {
	if len(room.Members) != models.RoomCapacity {
		return nil, ErrRoomNotReady
	}

	g := &models.Game{
		ID:     e.newID(),
		RoomID: room.ID,
		Phase:  models.PhaseAwaitingFleets,
	}
	for i, m := range room.Members {
		g.Players[i] = models.GamePlayer{
			PlayerID:       m.PlayerID,
			InGameID:       e.newID(),
			ShipsRemaining: StandardFleetSize,
		}
	}
	g.CurrentTurn = g.Players[0].InGameID

	if err := e.store.Games.Put(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SubmitFleet stores a player's ships. Placement is trusted: overlap and
// bounds are not checked.
func (e *Engine) SubmitFleet(ctx context.Context, gameID, inGameID string, ships []models.Ship) error {
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Finished {
		return ErrGameFinished
	}
	player, ok := g.Player(inGameID)
	if !ok {
		return ErrUnknownPlayer
	}
	if player.Ready() {
		return ErrFleetAlreadySet
	}
	if len(ships) == 0 {
		return ErrEmptyFleet
	}

	fleet := make([]models.Ship, len(ships))
	for i, s := range ships {
		s.Hits = []models.Cell{}
		fleet[i] = s
	}
	player.Ships = fleet
	player.ShipsRemaining = len(fleet)

	return e.store.Games.Put(ctx, g)
}

// BothFleetsReady reports whether both fleets are placed and, the first time
// it does, moves the game into play.
func (e *Engine) BothFleetsReady(ctx context.Context, gameID string) (bool, error) {
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return false, err
	}
	if g.Phase != models.PhaseAwaitingFleets {
		return g.Phase == models.PhaseInProgress, nil
	}
	if !e.lifecycle.CanChange(g, models.PhaseInProgress) {
		return false, nil
	}
	if err := e.lifecycle.ChangeState(g, models.PhaseInProgress); err != nil {
		return false, err
	}
	if err := e.store.Games.Put(ctx, g); err != nil {
		return false, err
	}
	return true, nil
}

// Attack fires attackerID's shot at (x, y) on the opponent's fleet.
func (e *Engine) Attack(ctx context.Context, gameID, attackerID string, x, y int) (models.AttackResult, error) {
	if !InBounds(x, y) {
		return "", ErrOutOfBounds
	}
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return "", err
	}
	switch g.Phase {
	case models.PhaseFinished:
		return "", ErrGameFinished
	case models.PhaseAwaitingFleets:
		return "", ErrGameNotStarted
	}
	if _, ok := g.Player(attackerID); !ok {
		return "", ErrUnknownPlayer
	}
	if attackerID != g.CurrentTurn {
		return "", ErrNotYourTurn
	}

	defender, _ := g.Opponent(attackerID)
	result := Resolve(defender.Ships, models.Cell{X: x, Y: y})
	if result == models.Killed {
		defender.ShipsRemaining--
	}

	if err := e.store.Games.Put(ctx, g); err != nil {
		return "", err
	}
	return result, nil
}

// IsGameOver reports whether the player waiting for their turn has lost
// every ship. When so, the game is finished with the mover as winner.
func (e *Engine) IsGameOver(ctx context.Context, gameID string) (bool, error) {
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return false, err
	}
	if g.Finished {
		return true, nil
	}
	defender, ok := g.Opponent(g.CurrentTurn)
	if !ok || !defender.Ready() || defender.ShipsRemaining > 0 {
		return false, nil
	}

	g.Winner = g.CurrentTurn
	if err := e.lifecycle.ChangeState(g, models.PhaseFinished); err != nil {
		return false, err
	}
	if err := e.store.Games.Put(ctx, g); err != nil {
		return false, err
	}
	return true, nil
}

// ChangeTurn hands the move to the other player. It is harmless on a
// finished game.
func (e *Engine) ChangeTurn(ctx context.Context, gameID string) error {
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return err
	}
	next, ok := g.Opponent(g.CurrentTurn)
	if !ok {
		return ErrUnknownPlayer
	}
	g.CurrentTurn = next.InGameID
	return e.store.Games.Put(ctx, g)
}

// Forfeit ends an unfinished game in favour of winnerID.
func (e *Engine) Forfeit(ctx context.Context, gameID, winnerID string) (*models.Game, error) {
	g, err := e.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Finished {
		return nil, ErrGameFinished
	}
	if _, ok := g.Player(winnerID); !ok {
		return nil, ErrUnknownPlayer
	}

	g.Winner = winnerID
	if err := e.lifecycle.ChangeState(g, models.PhaseFinished); err != nil {
		return nil, err
	}
	if err := e.store.Games.Put(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ActiveGameForRoom returns the unfinished game created from roomID.
func (e *Engine) ActiveGameForRoom(ctx context.Context, roomID string) (*models.Game, error) {
	games, err := e.store.Games.FindAll(ctx, func(g *models.Game) bool {
		return g.RoomID == roomID && !g.Finished
	})
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: no active game in room %s", ErrGameNotFound, roomID)
	}
	return games[0], nil
}

// AddWin credits a concluded game to the durable player.
func (e *Engine) AddWin(ctx context.Context, playerID string) error {
	p, err := e.store.Players.Get(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return err
	}
	p.Wins++
	return e.store.Players.Put(ctx, p)
}
