package ledger

// shiftRange computes the slice of positions displaced by moving an entry
// from oldPos to newPos, and the direction they shift. Moving an entry up
// pushes the intervening entries down one slot; moving it down pulls them up.
func shiftRange(oldPos, newPos int) (lo, hi, delta int) {
	if newPos < oldPos {
		return newPos, oldPos - 1, +1
	}
	return oldPos + 1, newPos, -1
}

// Sequential reports whether positions, already sorted ascending, form the
// exact sequence 1..N.
func Sequential(positions []int) bool {
	for i, p := range positions {
		if p != i+1 {
			return false
		}
	}
	return true
}
