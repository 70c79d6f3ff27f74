package hexcoord

import "testing"

func TestDistanceSelfIsZero(t *testing.T) {
	c := Coord{Q: 3, R: -2}
	if d := Distance(c, c); d != 0 {
		t.Fatalf("distance(c,c) = %d, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Coord{Q: 0, R: 0}
	b := Coord{Q: 4, R: -3}
	if Distance(a, b) != Distance(b, a) {
		t.Fatalf("distance not symmetric: %d vs %d", Distance(a, b), Distance(b, a))
	}
}

func TestNeighborsDistinctAndAdjacent(t *testing.T) {
	for _, o := range []Orientation{PointyTop, FlatTop} {
		c := Coord{Q: 1, R: -1}
		ns := Neighbors(c, o)
		seen := make(map[Coord]bool, 6)
		for _, n := range ns {
			if seen[n] {
				t.Fatalf("duplicate neighbor %v for orientation %v", n, o)
			}
			seen[n] = true
			if d := Distance(c, n); d != 1 {
				t.Fatalf("neighbor %v at distance %d, want 1", n, d)
			}
		}
		if len(seen) != 6 {
			t.Fatalf("got %d distinct neighbors, want 6", len(seen))
		}
	}
}

func TestNeighborsOrientationOrderDiffers(t *testing.T) {
	c := Coord{Q: 0, R: 0}
	pointy := Neighbors(c, PointyTop)
	flat := Neighbors(c, FlatTop)
	if pointy == flat {
		t.Fatalf("expected different orderings between orientations")
	}
}

func TestNeighborsStableAcrossCalls(t *testing.T) {
	c := Coord{Q: 5, R: 5}
	a := Neighbors(c, PointyTop)
	b := Neighbors(c, PointyTop)
	if a != b {
		t.Fatalf("neighbors(c) should be stable across calls")
	}
}
