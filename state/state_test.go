package state

import (
	"errors"
	"testing"

	"github.com/wfunc/battleship/models"
)

func newGame(phase models.Phase) *models.Game {
	return &models.Game{
		ID:    "g",
		Phase: phase,
		Players: [2]models.GamePlayer{
			{InGameID: "a"},
			{InGameID: "b"},
		},
		CurrentTurn: "a",
	}
}

func fleet() []models.Ship {
	return []models.Ship{{Length: 1}}
}

func TestMachine_AddAndUseTransition(t *testing.T) {
	m := NewMachine()
	m.AddTransition("A", "B", func(*models.Game) bool { return true })
	m.AddTransition("B", "C", func(*models.Game) bool { return false })

	g := &models.Game{Phase: "A"}

	if err := m.ChangeState(g, "B"); err != nil {
		t.Fatalf("Expected transition from A to B to be allowed, but got error: %v", err)
	}
	if g.Phase != "B" {
		t.Errorf("Expected phase to be B, but got %s", g.Phase)
	}

	err := m.ChangeState(g, "C")
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if g.Phase != "B" {
		t.Errorf("Expected phase to remain B after a blocked transition, but got %s", g.Phase)
	}

	if err := m.ChangeState(g, "A"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected unregistered transition to be rejected, but got: %v", err)
	}
}

func TestMachine_OnEnterHook(t *testing.T) {
	m := NewMachine()
	m.AddTransition("A", "B", nil)

	var called bool
	var seenFrom models.Phase
	m.OnEnter("B", func(g *models.Game, from models.Phase) {
		called = true
		seenFrom = from
	})

	g := &models.Game{Phase: "A"}
	if err := m.ChangeState(g, "B"); err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}
	if !called {
		t.Error("Expected OnEnter hook to be called")
	}
	if seenFrom != "A" {
		t.Errorf("Expected hook to see previous phase A, got %s", seenFrom)
	}
}

func TestGameLifecycle_StartRequiresBothFleets(t *testing.T) {
	m := NewGameLifecycle()
	g := newGame(models.PhaseAwaitingFleets)

	if m.CanChange(g, models.PhaseInProgress) {
		t.Fatal("game must not start without fleets")
	}

	g.Players[0].Ships = fleet()
	if m.CanChange(g, models.PhaseInProgress) {
		t.Fatal("game must not start with one fleet")
	}

	g.Players[1].Ships = fleet()
	if err := m.ChangeState(g, models.PhaseInProgress); err != nil {
		t.Fatalf("Expected game to start, got %v", err)
	}
	if g.Finished {
		t.Error("a started game is not finished")
	}
}

func TestGameLifecycle_FinishSetsFlag(t *testing.T) {
	m := NewGameLifecycle()

	for _, from := range []models.Phase{models.PhaseAwaitingFleets, models.PhaseInProgress} {
		g := newGame(from)
		if err := m.ChangeState(g, models.PhaseFinished); err != nil {
			t.Fatalf("Expected %s -> finished to be allowed, got %v", from, err)
		}
		if !g.Finished {
			t.Errorf("Expected Finished flag after %s -> finished", from)
		}
	}

	g := newGame(models.PhaseFinished)
	if err := m.ChangeState(g, models.PhaseInProgress); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("finished is terminal, got %v", err)
	}
}
