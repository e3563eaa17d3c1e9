package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wfunc/battleship/models"
)

// ErrTransitionNotAllowed is returned when a phase change is not in the
// transition table or its guard rejects it.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Guard decides whether a registered transition may fire for a game.
type Guard func(g *models.Game) bool

// Hook runs after a game has entered a phase.
type Hook func(g *models.Game, from models.Phase)

// Machine validates phase changes for games. It holds no per-game state;
// the phase lives on the game record so any store backend can persist it.
type Machine struct {
	transitions map[models.Phase]map[models.Phase]Guard // from -> to -> guard
	onEnter     map[models.Phase][]Hook
	mutex       sync.RWMutex
}

func NewMachine() *Machine {
	return &Machine{
		transitions: make(map[models.Phase]map[models.Phase]Guard),
		onEnter:     make(map[models.Phase][]Hook),
	}
}

// AddTransition allows from -> to. A nil guard always passes.
func (m *Machine) AddTransition(from, to models.Phase, guard Guard) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.transitions[from]; !exists {
		m.transitions[from] = make(map[models.Phase]Guard)
	}
	m.transitions[from][to] = guard
}

// OnEnter registers a hook for entering phase.
func (m *Machine) OnEnter(phase models.Phase, hook Hook) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onEnter[phase] = append(m.onEnter[phase], hook)
}

// CanChange reports whether g may move to phase to.
func (m *Machine) CanChange(g *models.Game, to models.Phase) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	targets, exists := m.transitions[g.Phase]
	if !exists {
		return false
	}
	guard, exists := targets[to]
	if !exists {
		return false
	}
	return guard == nil || guard(g)
}

// ChangeState moves g to phase to and runs the enter hooks.
func (m *Machine) ChangeState(g *models.Game, to models.Phase) error {
	if !m.CanChange(g, to) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, g.Phase, to)
	}

	from := g.Phase
	g.Phase = to

	m.mutex.RLock()
	hooks := m.onEnter[to]
	m.mutex.RUnlock()
	for _, hook := range hooks {
		hook(g, from)
	}
	return nil
}

// NewGameLifecycle returns the machine for awaitingFleets -> inProgress ->
// finished. A game can also be finished by forfeit before fleets are placed.
func NewGameLifecycle() *Machine {
	m := NewMachine()
	m.AddTransition(models.PhaseAwaitingFleets, models.PhaseInProgress, func(g *models.Game) bool {
		return g.Players[0].Ready() && g.Players[1].Ready()
	})
	m.AddTransition(models.PhaseAwaitingFleets, models.PhaseFinished, nil)
	m.AddTransition(models.PhaseInProgress, models.PhaseFinished, nil)
	m.OnEnter(models.PhaseFinished, func(g *models.Game, _ models.Phase) {
		g.Finished = true
	})
	return m
}
