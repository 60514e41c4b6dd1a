package cover

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/geocell/pkg/geo"
	"github.com/mohammed-shakir/geocell/pkg/geohash"
)

func TestRangeForRect_CornersAndOrdering(t *testing.T) {
	rect := geo.Rect{
		SW: geo.Point{Lat: 37.7, Lng: -122.5},
		NE: geo.Point{Lat: 37.9, Lng: -122.3},
	}
	r, err := RangeForRect(rect, 6)
	if err != nil {
		t.Fatalf("RangeForRect: %v", err)
	}

	wantMin, err := geohash.Encode(37.7, -122.5, 6)
	if err != nil {
		t.Fatalf("Encode sw: %v", err)
	}
	wantMax, err := geohash.Encode(37.9, -122.3, 6)
	if err != nil {
		t.Fatalf("Encode ne: %v", err)
	}
	if r.Min != wantMin || r.Max != wantMax {
		t.Fatalf("range [%q,%q] want [%q,%q]", r.Min, r.Max, wantMin, wantMax)
	}
	if !(r.Min < r.Max) {
		t.Fatalf("range keys not lexicographically ordered: %q >= %q", r.Min, r.Max)
	}
}

func TestRangeForRadius_SupersetOfCircle(t *testing.T) {
	center := geo.Point{Lat: 37.7749, Lng: -122.4194}
	const radiusKm = 5.0
	const precision = 5

	r, err := RangeForRadius(center, radiusKm, precision)
	if err != nil {
		t.Fatalf("RangeForRadius: %v", err)
	}

	// The center cell must fall inside the scan range.
	c, err := geohash.Encode(center.Lat, center.Lng, precision)
	if err != nil {
		t.Fatalf("Encode center: %v", err)
	}
	if c < r.Min || c > r.Max {
		t.Fatalf("center cell %q outside range [%q,%q]", c, r.Min, r.Max)
	}
}

func TestRangeForRadius_Validation(t *testing.T) {
	center := geo.Point{Lat: 0, Lng: 0}
	if _, err := RangeForRadius(center, -2, 6); !errors.Is(err, geo.ErrNegativeRadius) {
		t.Fatalf("expected ErrNegativeRadius, got %v", err)
	}
	if _, err := RangeForRadius(center, 5, 0); !errors.Is(err, geohash.ErrPrecision) {
		t.Fatalf("expected ErrPrecision, got %v", err)
	}
}
