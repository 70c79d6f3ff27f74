// Package hexcoord implements axial hex-grid coordinates: neighbor
// offsets, distance, and the two fixed orientation orderings scripts
// observe through world.neighbors.
package hexcoord

// Orientation selects which of the two fixed neighbor-offset orderings
// a grid uses. The six offsets are the same set for both; only the
// order in which scripts observe them differs.
type Orientation int

const (
	PointyTop Orientation = iota
	FlatTop
)

// Coord is an axial hex coordinate. The implicit cube coordinate is
// S() = -Q-R.
type Coord struct {
	Q, R int
}

func (c Coord) S() int {
	return -c.Q - c.R
}

func (c Coord) Add(d Coord) Coord {
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// pointyOffsets is the canonical six axial neighbor vectors, ordered
// east, northeast, northwest, west, southwest, southeast for a
// pointy-top grid.
var pointyOffsets = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// flatOffsets is the same six vectors in the order a flat-top grid
// exposes them. The vectors are identical to pointyOffsets; only the
// order scripts observe is different, per spec.
var flatOffsets = [6]Coord{
	{Q: 1, R: -1},
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
	{Q: 0, R: -1},
}

// Neighbors returns the six coordinates adjacent to c, in the fixed
// order determined by orientation. The order is part of the contract:
// scripts receive it as a sequence and may index it.
func Neighbors(c Coord, o Orientation) [6]Coord {
	offsets := pointyOffsets
	if o == FlatTop {
		offsets = flatOffsets
	}
	var out [6]Coord
	for i, d := range offsets {
		out[i] = c.Add(d)
	}
	return out
}

// Distance returns the hex distance between a and b.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return (dq + dr + ds) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
