// Package s2grid implements the quadtree-like cell scheme on top of S2 cell
// ids (six cube faces, recursive quad subdivision). Cells travel as hex
// tokens so they stay opaque strings like every other scheme.
package s2grid

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

const (
	MinLevel = 0
	MaxLevel = 30

	earthRadiusKm = 6371.0088
)

var (
	ErrLevel       = errors.New("s2 level out of range")
	ErrInvalidCell = errors.New("invalid s2 cell token")
	ErrHierarchy   = errors.New("no cell at requested level")
)

type Grid struct{}

func New() *Grid { return &Grid{} }

func (g *Grid) Scheme() string { return "s2" }

func (g *Grid) Levels() (int, int) { return MinLevel, MaxLevel }

func validateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("level %d not in [%d,%d]: %w", level, MinLevel, MaxLevel, ErrLevel)
	}
	return nil
}

func parse(cell string) (s2.CellID, error) {
	id := s2.CellIDFromToken(cell)
	if !id.IsValid() {
		return 0, fmt.Errorf("token %q: %w", cell, ErrInvalidCell)
	}
	return id, nil
}

func (g *Grid) Encode(p geo.Point, level int) (string, error) {
	if err := validateLevel(level); err != nil {
		return "", err
	}
	if _, err := geo.NewPoint(p.Lat, p.Lng); err != nil {
		return "", err
	}
	id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng)).Parent(level)
	return id.ToToken(), nil
}

// Decode returns the cell center.
func (g *Grid) Decode(cell string) (geo.Point, error) {
	id, err := parse(cell)
	if err != nil {
		return geo.Point{}, err
	}
	ll := id.LatLng()
	return geo.Point{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}, nil
}

// DecodeBounds returns the latitude/longitude bounding rectangle of the
// cell. S2 cells are not lat/lng-aligned, so this is the enclosing rect.
func (g *Grid) DecodeBounds(cell string) (geo.Rect, error) {
	id, err := parse(cell)
	if err != nil {
		return geo.Rect{}, err
	}
	rb := s2.CellFromCellID(id).RectBound()
	return geo.Rect{
		SW: geo.Point{Lat: rb.Lo().Lat.Degrees(), Lng: rb.Lo().Lng.Degrees()},
		NE: geo.Point{Lat: rb.Hi().Lat.Degrees(), Lng: rb.Hi().Lng.Degrees()},
	}, nil
}

// Neighbors returns the edge and vertex neighbors at the cell's own level:
// 8 in the common case, fewer where cube faces meet at a corner.
func (g *Grid) Neighbors(cell string) ([]string, error) {
	id, err := parse(cell)
	if err != nil {
		return nil, err
	}
	ids := id.AllNeighbors(id.Level())
	out := make([]string, 0, len(ids))
	seen := make(map[s2.CellID]struct{}, len(ids))
	for _, n := range ids {
		if n == id {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n.ToToken())
	}
	return out, nil
}

func (g *Grid) Parent(cell string) (string, error) {
	id, err := parse(cell)
	if err != nil {
		return "", err
	}
	if id.Level() == MinLevel {
		return "", fmt.Errorf("cell %q already at level %d: %w", cell, MinLevel, ErrHierarchy)
	}
	return id.Parent(id.Level() - 1).ToToken(), nil
}

func (g *Grid) Children(cell string) ([]string, error) {
	id, err := parse(cell)
	if err != nil {
		return nil, err
	}
	if id.Level() == MaxLevel {
		return nil, fmt.Errorf("cell %q already at level %d: %w", cell, MaxLevel, ErrHierarchy)
	}
	kids := id.Children()
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.ToToken())
	}
	return out, nil
}

// CellWidthKm estimates the cell edge length at a level from the S2
// average-edge metric.
func (g *Grid) CellWidthKm(level int) float64 {
	if level < MinLevel || level > MaxLevel {
		return 0
	}
	return s2.AvgEdgeMetric.Value(level) * earthRadiusKm
}

// Level reports the subdivision level encoded in the cell token.
func (g *Grid) Level(cell string) (int, error) {
	id, err := parse(cell)
	if err != nil {
		return 0, err
	}
	return id.Level(), nil
}
