package s2grid

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := New()
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 300; i++ {
		p := geo.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		level := 1 + rng.Intn(20)

		cell, err := g.Encode(p, level)
		if err != nil {
			t.Fatalf("Encode(%+v,%d): %v", p, level, err)
		}
		if lv, err := g.Level(cell); err != nil || lv != level {
			t.Fatalf("Level(%q)=%d,%v want %d", cell, lv, err, level)
		}

		center, err := g.Decode(cell)
		if err != nil {
			t.Fatalf("Decode(%q): %v", cell, err)
		}
		// The input must map back to the same cell as the center.
		again, err := g.Encode(center, level)
		if err != nil {
			t.Fatalf("Encode(center): %v", err)
		}
		if again != cell {
			t.Fatalf("center of %q re-encodes to %q", cell, again)
		}
		// Center must be within one cell width of the input.
		if d := geo.DistanceKm(p, center); d > 1.5*g.CellWidthKm(level) {
			t.Fatalf("center %.3fkm from input, cell width %.3fkm (level %d)", d, g.CellWidthKm(level), level)
		}

		bounds, err := g.DecodeBounds(cell)
		if err != nil {
			t.Fatalf("DecodeBounds(%q): %v", cell, err)
		}
		if !bounds.Contains(center) {
			t.Fatalf("bounds %+v of %q do not contain center %+v", bounds, cell, center)
		}
	}
}

func TestEncode_Validation(t *testing.T) {
	g := New()
	p := geo.Point{Lat: 59.33, Lng: 18.07}
	if _, err := g.Encode(p, -1); !errors.Is(err, ErrLevel) {
		t.Fatalf("level -1: expected ErrLevel, got %v", err)
	}
	if _, err := g.Encode(p, 31); !errors.Is(err, ErrLevel) {
		t.Fatalf("level 31: expected ErrLevel, got %v", err)
	}
	if _, err := g.Encode(geo.Point{Lat: 91, Lng: 0}, 10); !errors.Is(err, geo.ErrOutOfRange) {
		t.Fatalf("lat 91: expected ErrOutOfRange, got %v", err)
	}
	if _, err := g.Decode("not-a-token"); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("bad token: expected ErrInvalidCell, got %v", err)
	}
}

// Regression property for the silent-failure class: neighbors that parse
// fine but live somewhere else entirely. Every neighbor must decode within
// about two cell widths of the cell's own center.
func TestNeighbors_AdjacencyProperty(t *testing.T) {
	g := New()
	rng := rand.New(rand.NewSource(23))
	for i := 0; i < 300; i++ {
		p := geo.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		level := 2 + rng.Intn(18)

		cell, err := g.Encode(p, level)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		center, err := g.Decode(cell)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}

		ns, err := g.Neighbors(cell)
		if err != nil {
			t.Fatalf("Neighbors(%q): %v", cell, err)
		}
		if len(ns) < 3 || len(ns) > 8 {
			t.Fatalf("neighbor count %d out of expected range for %q", len(ns), cell)
		}
		limit := 2.5 * g.CellWidthKm(level)
		for _, n := range ns {
			nc, err := g.Decode(n)
			if err != nil {
				t.Fatalf("Decode(%q): %v", n, err)
			}
			if d := geo.DistanceKm(center, nc); d > limit {
				t.Fatalf("neighbor %q of %q is %.3fkm away, limit %.3fkm", n, cell, d, limit)
			}
		}
	}
}

func TestNeighbors_Symmetry(t *testing.T) {
	g := New()
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		p := geo.Point{Lat: rng.Float64()*160 - 80, Lng: rng.Float64()*360 - 180}
		cell, err := g.Encode(p, 10)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		ns, err := g.Neighbors(cell)
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		for _, n := range ns {
			back, err := g.Neighbors(n)
			if err != nil {
				t.Fatalf("Neighbors(%q): %v", n, err)
			}
			if !contains(back, cell) {
				t.Fatalf("%q in Neighbors(%q) but not vice versa", n, cell)
			}
		}
	}
}

func TestParentChildren(t *testing.T) {
	g := New()
	p := geo.Point{Lat: 37.7749, Lng: -122.4194}

	cell, err := g.Encode(p, 12)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parent, err := g.Parent(cell)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	kids, err := g.Children(parent)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(kids) != 4 {
		t.Fatalf("quad fan-out must be 4, got %d", len(kids))
	}
	if !contains(kids, cell) {
		t.Fatalf("children of parent must include the original cell")
	}

	top, err := g.Encode(p, MinLevel)
	if err != nil {
		t.Fatalf("Encode level 0: %v", err)
	}
	if _, err := g.Parent(top); !errors.Is(err, ErrHierarchy) {
		t.Fatalf("parent of level-0 cell: expected ErrHierarchy, got %v", err)
	}

	leaf, err := g.Encode(p, MaxLevel)
	if err != nil {
		t.Fatalf("Encode level 30: %v", err)
	}
	if _, err := g.Children(leaf); !errors.Is(err, ErrHierarchy) {
		t.Fatalf("children of level-30 cell: expected ErrHierarchy, got %v", err)
	}
}

func TestCellWidthShrinks(t *testing.T) {
	g := New()
	for lv := MinLevel; lv < MaxLevel; lv++ {
		if g.CellWidthKm(lv) <= g.CellWidthKm(lv+1) {
			t.Fatalf("cell width must shrink with level: %d", lv)
		}
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
