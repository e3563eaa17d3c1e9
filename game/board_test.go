package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wfunc/battleship/models"
)

type fixedRandom []int

func (f *fixedRandom) IntN(n int) int {
	v := (*f)[0] % n
	*f = (*f)[1:]
	return v
}

func TestStandardFleet(t *testing.T) {
	fleet := StandardFleet()
	assert.Len(t, fleet, StandardFleetSize)

	lengths := map[int]int{}
	seen := map[models.Cell]bool{}
	for _, s := range fleet {
		lengths[s.Length]++
		for _, c := range s.Cells() {
			assert.True(t, InBounds(c.X, c.Y), "cell %v off board", c)
			assert.False(t, seen[c], "cell %v shared", c)
			seen[c] = true
		}
	}
	assert.Equal(t, map[int]int{4: 1, 3: 2, 2: 3, 1: 4}, lengths)
}

func TestResolve_FirstUnhitShipWins(t *testing.T) {
	// two overlapping ships: a malformed fleet still resolves deterministically
	fleet := []models.Ship{
		{Position: models.Cell{X: 0, Y: 0}, Length: 2},
		{Position: models.Cell{X: 1, Y: 0}, Direction: models.Vertical, Length: 1},
	}

	assert.Equal(t, models.Shot, Resolve(fleet, models.Cell{X: 1, Y: 0}))
	assert.Equal(t, models.Killed, Resolve(fleet, models.Cell{X: 1, Y: 0}))
	assert.Equal(t, models.Miss, Resolve(fleet, models.Cell{X: 1, Y: 0}))
}

func TestRandomCell(t *testing.T) {
	r := fixedRandom{3, 17}
	assert.Equal(t, models.Cell{X: 3, Y: 7}, RandomCell(&r))

	for i := 0; i < 200; i++ {
		c := RandomCell(DefaultRandom)
		assert.True(t, InBounds(c.X, c.Y))
	}
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(0, 0))
	assert.True(t, InBounds(9, 9))
	assert.False(t, InBounds(-1, 0))
	assert.False(t, InBounds(0, 10))
}
