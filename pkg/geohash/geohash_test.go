package geohash

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

func TestEncode_KnownValues(t *testing.T) {
	cases := []struct {
		lat, lng  float64
		precision int
		want      string
	}{
		{37.7749, -122.4194, 5, "9q8yy"},
		{0, 0, 6, "s00000"},
		{57.64911, 10.40744, 11, "u4pruydqqvj"},
		{42.605, -5.603, 5, "ezs42"},
	}
	for _, tc := range cases {
		got, err := Encode(tc.lat, tc.lng, tc.precision)
		if err != nil {
			t.Fatalf("Encode(%v,%v,%d): %v", tc.lat, tc.lng, tc.precision, err)
		}
		if got != tc.want {
			t.Fatalf("Encode(%v,%v,%d)=%q want %q", tc.lat, tc.lng, tc.precision, got, tc.want)
		}
	}
}

func TestEncode_Validation(t *testing.T) {
	if _, err := Encode(0, 0, 0); !errors.Is(err, ErrPrecision) {
		t.Fatalf("precision 0: expected ErrPrecision, got %v", err)
	}
	if _, err := Encode(0, 0, 13); !errors.Is(err, ErrPrecision) {
		t.Fatalf("precision 13: expected ErrPrecision, got %v", err)
	}
	if _, err := Encode(91, 0, 5); !errors.Is(err, geo.ErrOutOfRange) {
		t.Fatalf("lat 91: expected ErrOutOfRange, got %v", err)
	}
}

func TestDecode_Validation(t *testing.T) {
	if _, err := Decode(""); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("empty hash: expected ErrInvalidHash, got %v", err)
	}
	if _, err := Decode("9q8yy9q8yy9q8"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("13 symbols: expected ErrInvalidHash, got %v", err)
	}
	// 'a' is not in the alphabet.
	if _, err := Decode("9a8"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("bad symbol: expected ErrInvalidHash, got %v", err)
	}
}

func TestRoundTrip_WithinCellHalfWidth(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		lat := rng.Float64()*180 - 90
		lng := rng.Float64()*360 - 180
		precision := 1 + rng.Intn(MaxPrecision)

		h, err := Encode(lat, lng, precision)
		if err != nil {
			t.Fatalf("Encode(%v,%v,%d): %v", lat, lng, precision, err)
		}
		bounds, err := DecodeBounds(h)
		if err != nil {
			t.Fatalf("DecodeBounds(%q): %v", h, err)
		}
		if !bounds.Contains(geo.Point{Lat: lat, Lng: lng}) {
			t.Fatalf("cell %q bounds %+v do not contain input (%v,%v)", h, bounds, lat, lng)
		}

		center, err := Decode(h)
		if err != nil {
			t.Fatalf("Decode(%q): %v", h, err)
		}
		if !bounds.Contains(center) {
			t.Fatalf("cell %q bounds do not contain own center %+v", h, center)
		}
		halfLat := (bounds.NE.Lat - bounds.SW.Lat) / 2
		halfLng := (bounds.NE.Lng - bounds.SW.Lng) / 2
		if math.Abs(center.Lat-lat) > halfLat+1e-12 || math.Abs(center.Lng-lng) > halfLng+1e-12 {
			t.Fatalf("cell %q center (%v,%v) further than half-width from input (%v,%v)",
				h, center.Lat, center.Lng, lat, lng)
		}
	}
}

func TestPrefixMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		lat := rng.Float64()*180 - 90
		lng := rng.Float64()*360 - 180
		for p := MinPrecision; p < MaxPrecision; p++ {
			short, err := Encode(lat, lng, p)
			if err != nil {
				t.Fatalf("Encode p=%d: %v", p, err)
			}
			long, err := Encode(lat, lng, p+1)
			if err != nil {
				t.Fatalf("Encode p=%d: %v", p+1, err)
			}
			if !strings.HasPrefix(long, short) {
				t.Fatalf("%q is not a prefix of %q (lat=%v lng=%v)", short, long, lat, lng)
			}
		}
	}
}

func TestNeighbors_KnownValues(t *testing.T) {
	// Well-known adjacency fixtures for the table technique.
	if got, err := Adjacent("ezs42", North); err != nil || got != "ezs48" {
		t.Fatalf("Adjacent(ezs42,N)=%q,%v want ezs48", got, err)
	}
	if got, err := Adjacent("u4pruyd", East); err != nil || got != "u4pruye" {
		t.Fatalf("Adjacent(u4pruyd,E)=%q,%v want u4pruye", got, err)
	}

	ns, err := Neighbors("9q8yy")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(ns) != 8 {
		t.Fatalf("expected 8 neighbors, got %d", len(ns))
	}
	seen := map[string]struct{}{"9q8yy": {}}
	for _, n := range ns {
		if len(n) != 5 {
			t.Fatalf("neighbor %q has wrong precision", n)
		}
		if _, dup := seen[n]; dup {
			t.Fatalf("duplicate neighbor %q", n)
		}
		seen[n] = struct{}{}
	}
}

func TestNeighbors_AdjacencyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 300; i++ {
		// Stay away from the poles where east-west adjacency degenerates.
		lat := rng.Float64()*160 - 80
		lng := rng.Float64()*360 - 180
		precision := 2 + rng.Intn(MaxPrecision-1)

		h, err := Encode(lat, lng, precision)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		bounds, err := DecodeBounds(h)
		if err != nil {
			t.Fatalf("DecodeBounds: %v", err)
		}
		center := bounds.Center()
		cellWidthM := geo.Distance(
			geo.Point{Lat: center.Lat, Lng: bounds.SW.Lng},
			geo.Point{Lat: center.Lat, Lng: bounds.NE.Lng},
		)
		cellHeightM := geo.Distance(bounds.SW, geo.Point{Lat: bounds.NE.Lat, Lng: bounds.SW.Lng})
		limit := 2 * math.Max(cellWidthM, cellHeightM) * 1.1

		ns, err := Neighbors(h)
		if err != nil {
			t.Fatalf("Neighbors(%q): %v", h, err)
		}
		for _, n := range ns {
			nc, err := Decode(n)
			if err != nil {
				t.Fatalf("Decode(%q): %v", n, err)
			}
			if d := geo.Distance(center, nc); d > limit {
				t.Fatalf("neighbor %q of %q is %.0fm away, limit %.0fm", n, h, d, limit)
			}
		}
	}
}

func TestNeighbors_SymmetryAwayFromEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dirs := []Direction{North, South, East, West}
	opposite := map[Direction]Direction{North: South, South: North, East: West, West: East}

	for i := 0; i < 200; i++ {
		lat := rng.Float64()*160 - 80
		lng := rng.Float64()*340 - 170
		h, err := Encode(lat, lng, 6)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		for _, d := range dirs {
			n, err := Adjacent(h, d)
			if err != nil {
				t.Fatalf("Adjacent: %v", err)
			}
			back, err := Adjacent(n, opposite[d])
			if err != nil {
				t.Fatalf("Adjacent back: %v", err)
			}
			if back != h {
				t.Fatalf("Adjacent(%q,%v)=%q but inverse gives %q", h, d, n, back)
			}
		}
	}
}

func TestCellWidthKm(t *testing.T) {
	if CellWidthKm(0) != 0 || CellWidthKm(13) != 0 {
		t.Fatalf("out-of-range precision should report zero width")
	}
	for p := MinPrecision; p < MaxPrecision; p++ {
		if CellWidthKm(p) <= CellWidthKm(p+1) {
			t.Fatalf("cell width must shrink with precision: p=%d", p)
		}
	}
}
