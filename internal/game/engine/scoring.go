package engine

import "github.com/palemoky/cluegrid/internal/game/room"

// pointsByDistance is indexed by Chebyshev distance from the target.
var pointsByDistance = []int{3, 2, 1}

// Points scores a chip at guess against the target cell.
func Points(guess, target room.Coord) int {
	d := max(abs(guess.X-target.X), abs(guess.Y-target.Y))
	if d < len(pointsByDistance) {
		return pointsByDistance[d]
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
