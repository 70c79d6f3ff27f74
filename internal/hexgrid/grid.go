// Package hexgrid implements HexGrid: the mapping from hex coordinates
// to tiles that backs world generation and spatial queries.
package hexgrid

import "github.com/hexforge/sim/internal/hexcoord"

// Tile is opaque to scripts beyond its coordinate: the core exposes
// only existence and position. Concrete gameplay attributes belong to
// external collaborators and may be layered on without changing this
// type's contract.
type Tile struct {
	Coord hexcoord.Coord
}

// Grid maps hex coordinates to tiles. It has no ordering requirement;
// it is populated by external world generation before the first tick
// and the core only reads it afterward.
type Grid struct {
	orientation hexcoord.Orientation
	tiles       map[hexcoord.Coord]Tile
}

func New(o hexcoord.Orientation) *Grid {
	return &Grid{
		orientation: o,
		tiles:       make(map[hexcoord.Coord]Tile),
	}
}

func (g *Grid) Orientation() hexcoord.Orientation {
	return g.orientation
}

// Insert adds a tile at c, used by external world generation.
func (g *Grid) Insert(c hexcoord.Coord) {
	g.tiles[c] = Tile{Coord: c}
}

// CreateRect populates a w-by-h rectangle of tiles with its origin
// corner at (0,0), used by external world generation.
func (g *Grid) CreateRect(w, h int) {
	for q := 0; q < w; q++ {
		for r := 0; r < h; r++ {
			g.Insert(hexcoord.Coord{Q: q, R: r})
		}
	}
}

// TileAt reports whether a tile exists at c. An absent position is not
// an error: callers must distinguish presence from absence themselves.
func (g *Grid) TileAt(c hexcoord.Coord) (Tile, bool) {
	t, ok := g.tiles[c]
	return t, ok
}

// Distance is a convenience forward to hexcoord.Distance.
func (g *Grid) Distance(a, b hexcoord.Coord) int {
	return hexcoord.Distance(a, b)
}

// Neighbors returns the six coordinates adjacent to c in the grid's
// fixed orientation order, regardless of whether they are populated.
func (g *Grid) Neighbors(c hexcoord.Coord) [6]hexcoord.Coord {
	return hexcoord.Neighbors(c, g.orientation)
}

// Len reports the number of populated tiles.
func (g *Grid) Len() int {
	return len(g.tiles)
}
