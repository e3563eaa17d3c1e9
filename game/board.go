package game

import (
	"math/rand/v2"

	"github.com/wfunc/battleship/models"
)

// InBounds reports whether (x, y) lies on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Resolve applies a shot at target to the fleet, in submission order. The
// first ship with an unhit cell at target takes the hit; cells already hit
// are skipped, so repeating a shot on a wreck is a miss.
func Resolve(fleet []models.Ship, target models.Cell) models.AttackResult {
	for i := range fleet {
		ship := &fleet[i]
		if ship.Killed() {
			continue
		}
		for _, c := range ship.Cells() {
			if c != target || ship.IsHit(c) {
				continue
			}
			ship.Hits = append(ship.Hits, c)
			if ship.Killed() {
				return models.Killed
			}
			return models.Shot
		}
	}
	return models.Miss
}

// Random picks grid coordinates.
type Random interface {
	IntN(n int) int
}

// RandomCell picks a cell uniformly from the grid.
func RandomCell(r Random) models.Cell {
	return models.Cell{X: r.IntN(BoardSize), Y: r.IntN(BoardSize)}
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom is the process-wide source used for random attacks. It is
// safe for concurrent use.
var DefaultRandom Random = globalRandom{}

// StandardFleet lays out the standard ten ships on rows 0, 2, 4, ... so they
// never touch. Used by the test client and tests.
func StandardFleet() []models.Ship {
	layout := []struct {
		length int
		kind   string
	}{
		{4, "huge"},
		{3, "large"}, {3, "large"},
		{2, "medium"}, {2, "medium"}, {2, "medium"},
		{1, "small"}, {1, "small"}, {1, "small"}, {1, "small"},
	}

	ships := make([]models.Ship, 0, len(layout))
	x, y := 0, 0
	for _, l := range layout {
		if x+l.length > BoardSize {
			x, y = 0, y+2
		}
		ships = append(ships, models.Ship{
			Position:  models.Cell{X: x, Y: y},
			Direction: models.Horizontal,
			Length:    l.length,
			Type:      l.kind,
		})
		x += l.length + 1
	}
	return ships
}
