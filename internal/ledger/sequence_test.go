package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftRange_MoveUp(t *testing.T) {
	// Moving the entry at 4 up to 2 pushes 2 and 3 down one slot.
	lo, hi, delta := shiftRange(4, 2)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)
	assert.Equal(t, +1, delta)
}

func TestShiftRange_MoveDown(t *testing.T) {
	// Moving the entry at 2 down to 5 pulls 3..5 up one slot.
	lo, hi, delta := shiftRange(2, 5)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 5, hi)
	assert.Equal(t, -1, delta)
}

func TestShiftRange_AdjacentSwap(t *testing.T) {
	lo, hi, delta := shiftRange(3, 4)
	assert.Equal(t, 4, lo)
	assert.Equal(t, 4, hi)
	assert.Equal(t, -1, delta)
}

// simulate applies a reorder the way the ledger does: park, shift, place.
func simulate(positions map[uint]int, entryID uint, newPos int) map[uint]int {
	oldPos := positions[entryID]
	lo, hi, delta := shiftRange(oldPos, newPos)
	out := make(map[uint]int, len(positions))
	for id, p := range positions {
		switch {
		case id == entryID:
			out[id] = newPos
		case p >= lo && p <= hi:
			out[id] = p + delta
		default:
			out[id] = p
		}
	}
	return out
}

func TestReorderSemantics(t *testing.T) {
	// Entries a..e at positions 1..5; move d (at 4) to position 2.
	positions := map[uint]int{1: 1, 2: 2, 3: 3, 4: 4, 5: 5}

	moved := simulate(positions, 4, 2)

	assert.Equal(t, map[uint]int{1: 1, 4: 2, 2: 3, 3: 4, 5: 5}, moved)
}

func TestSequential(t *testing.T) {
	assert.True(t, Sequential(nil))
	assert.True(t, Sequential([]int{1}))
	assert.True(t, Sequential([]int{1, 2, 3, 4, 5}))

	assert.False(t, Sequential([]int{2, 3, 4}))       // gap at 1
	assert.False(t, Sequential([]int{1, 2, 2, 3}))    // duplicate
	assert.False(t, Sequential([]int{1, 2, 4, 5}))    // gap in the middle
	assert.False(t, Sequential([]int{0, 1, 2}))       // parked entry left behind
}
