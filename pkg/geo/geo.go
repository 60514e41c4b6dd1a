// Package geo provides the coordinate and bounding-box primitives shared by
// the cell encoders and covering algorithms.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	earthRadiusMeters = 6371000.0

	// KmPerDegreeLat is the approximate north-south extent of one degree of
	// latitude. Longitude degrees shrink by cos(lat) toward the poles.
	KmPerDegreeLat = 111.32

	metersPerMile = 1609.344
)

var (
	ErrOutOfRange     = errors.New("coordinate out of range")
	ErrNegativeRadius = errors.New("radius must be non-negative")
	ErrCorners        = errors.New("southwest latitude must not exceed northeast latitude")
)

// Point is an immutable WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func NewPoint(lat, lng float64) (Point, error) {
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return Point{}, fmt.Errorf("latitude %v not in [-90,90]: %w", lat, ErrOutOfRange)
	}
	if lng < -180 || lng > 180 || math.IsNaN(lng) {
		return Point{}, fmt.Errorf("longitude %v not in [-180,180]: %w", lng, ErrOutOfRange)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// Rect is a latitude/longitude rectangle. SW.Lng > NE.Lng denotes a
// rectangle that crosses the antimeridian.
type Rect struct {
	SW Point `json:"sw"`
	NE Point `json:"ne"`
}

func NewRect(sw, ne Point) (Rect, error) {
	if sw.Lat > ne.Lat {
		return Rect{}, fmt.Errorf("sw.lat=%v ne.lat=%v: %w", sw.Lat, ne.Lat, ErrCorners)
	}
	return Rect{SW: sw, NE: ne}, nil
}

// Wraps reports whether the rectangle crosses the antimeridian.
func (r Rect) Wraps() bool { return r.SW.Lng > r.NE.Lng }

// Contains is inclusive on both axes. Longitude is compared modularly when
// the rectangle wraps.
func (r Rect) Contains(p Point) bool {
	if p.Lat < r.SW.Lat || p.Lat > r.NE.Lat {
		return false
	}
	if r.Wraps() {
		return p.Lng >= r.SW.Lng || p.Lng <= r.NE.Lng
	}
	return p.Lng >= r.SW.Lng && p.Lng <= r.NE.Lng
}

func (r Rect) Center() Point {
	lat := (r.SW.Lat + r.NE.Lat) / 2
	span := r.NE.Lng - r.SW.Lng
	if r.Wraps() {
		span += 360
	}
	return Point{Lat: lat, Lng: WrapLng(r.SW.Lng + span/2)}
}

// RectFromCenter converts a radius in kilometers to a degree-delta rectangle
// around center. Latitude is clamped at the poles; longitude wraps across
// the antimeridian instead of clamping.
func RectFromCenter(center Point, radiusKm float64) (Rect, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return Rect{}, fmt.Errorf("radius %v km: %w", radiusKm, ErrNegativeRadius)
	}
	latDelta := radiusKm / KmPerDegreeLat
	lngDelta := radiusKm / (KmPerDegreeLat * clampedCosLat(center.Lat))

	sw := Point{Lat: clampLat(center.Lat - latDelta), Lng: center.Lng - lngDelta}
	ne := Point{Lat: clampLat(center.Lat + latDelta), Lng: center.Lng + lngDelta}

	if lngDelta >= 180 {
		// Radius spans the whole longitude range at this latitude.
		sw.Lng, ne.Lng = -180, 180
	} else {
		sw.Lng = WrapLng(sw.Lng)
		ne.Lng = WrapLng(ne.Lng)
	}
	return Rect{SW: sw, NE: ne}, nil
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func DistanceKm(a, b Point) float64 { return Distance(a, b) / 1000 }

func DistanceMiles(a, b Point) float64 { return Distance(a, b) / metersPerMile }

// WrapLng normalizes a longitude into [-180,180].
func WrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

func clampLat(lat float64) float64 {
	if lat < -90 {
		return -90
	}
	if lat > 90 {
		return 90
	}
	return lat
}

// cos(lat) floors at a small value so longitude deltas stay finite near the
// poles.
func clampedCosLat(lat float64) float64 {
	c := math.Cos(radians(lat))
	if c < 0.01 {
		return 0.01
	}
	return c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
