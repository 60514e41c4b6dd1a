// Package h3grid implements the hexagonal cell scheme on top of H3.
// Hexagons have 6 neighbors, except the 12 pentagon cells each resolution
// inherits from the icosahedron, which have 5; Neighbors therefore returns
// a variable-length set and IsPentagon is exposed for callers that care.
package h3grid

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

const (
	MinRes = 0
	MaxRes = 15
)

var (
	ErrResolution  = errors.New("h3 resolution out of range")
	ErrInvalidCell = errors.New("invalid h3 cell")
	ErrHierarchy   = errors.New("no cell at requested resolution")
)

// Average hex edge length in kilometers per resolution, from the published
// H3 table. Cell width is roughly twice the edge length.
var avgEdgeKm = [MaxRes + 1]float64{
	459.75, 174.38, 65.91, 24.91, 9.416, 3.560, 1.349, 0.5107,
	0.1934, 0.07310, 0.02763, 0.01044, 0.003946, 0.001491, 0.0005637, 0.0002131,
}

type Grid struct{}

func New() *Grid { return &Grid{} }

func (g *Grid) Scheme() string { return "h3" }

func (g *Grid) Levels() (int, int) { return MinRes, MaxRes }

func validateRes(res int) error {
	if res < MinRes || res > MaxRes {
		return fmt.Errorf("resolution %d not in [%d,%d]: %w", res, MinRes, MaxRes, ErrResolution)
	}
	return nil
}

func parse(cell string) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return 0, fmt.Errorf("parse cell %q: %w", cell, ErrInvalidCell)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("cell %q: %w", cell, ErrInvalidCell)
	}
	return c, nil
}

func (g *Grid) Encode(p geo.Point, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if _, err := geo.NewPoint(p.Lat, p.Lng); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 encode: %w", err)
	}
	return c.String(), nil
}

// Decode returns the cell center.
func (g *Grid) Decode(cell string) (geo.Point, error) {
	c, err := parse(cell)
	if err != nil {
		return geo.Point{}, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return geo.Point{}, fmt.Errorf("h3 center: %w", err)
	}
	return geo.Point{Lat: ll.Lat, Lng: geo.WrapLng(ll.Lng)}, nil
}

// DecodeBounds returns the enclosing lat/lng rectangle of the hex boundary.
// Cells straddling the antimeridian come back as wrapping rects.
func (g *Grid) DecodeBounds(cell string) (geo.Rect, error) {
	c, err := parse(cell)
	if err != nil {
		return geo.Rect{}, err
	}
	boundary, err := h3.CellToBoundary(c)
	if err != nil {
		return geo.Rect{}, fmt.Errorf("h3 boundary: %w", err)
	}
	if len(boundary) == 0 {
		return geo.Rect{}, fmt.Errorf("empty boundary for %q: %w", cell, ErrInvalidCell)
	}

	minLat, maxLat := boundary[0].Lat, boundary[0].Lat
	minLng, maxLng := boundary[0].Lng, boundary[0].Lng
	for _, v := range boundary[1:] {
		if v.Lat < minLat {
			minLat = v.Lat
		}
		if v.Lat > maxLat {
			maxLat = v.Lat
		}
		if v.Lng < minLng {
			minLng = v.Lng
		}
		if v.Lng > maxLng {
			maxLng = v.Lng
		}
	}

	if maxLng-minLng > 180 {
		// Vertices sit on both sides of the antimeridian; recompute the
		// span in [0,360) space so the rect stays tight.
		minLng, maxLng = wrapSpan(boundary)
	}

	return geo.Rect{
		SW: geo.Point{Lat: minLat, Lng: geo.WrapLng(minLng)},
		NE: geo.Point{Lat: maxLat, Lng: geo.WrapLng(maxLng)},
	}, nil
}

// wrapSpan recomputes the min/max longitude of a boundary in [0,360) space
// and maps the result back, for cells crossing the antimeridian.
func wrapSpan(boundary []h3.LatLng) (minLng, maxLng float64) {
	first := boundary[0].Lng
	if first < 0 {
		first += 360
	}
	minS, maxS := first, first
	for _, v := range boundary[1:] {
		lng := v.Lng
		if lng < 0 {
			lng += 360
		}
		if lng < minS {
			minS = lng
		}
		if lng > maxS {
			maxS = lng
		}
	}
	return minS, maxS
}

// Neighbors returns the cells adjacent to cell: 6 for hexagons, 5 for
// pentagons.
func (g *Grid) Neighbors(cell string) ([]string, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	disk, err := h3.GridDisk(c, 1)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	out := make([]string, 0, len(disk))
	for _, n := range disk {
		if n == c {
			continue
		}
		out = append(out, n.String())
	}
	return out, nil
}

func (g *Grid) Parent(cell string) (string, error) {
	c, err := parse(cell)
	if err != nil {
		return "", err
	}
	res := c.Resolution()
	if res == MinRes {
		return "", fmt.Errorf("cell %q already at resolution %d: %w", cell, MinRes, ErrHierarchy)
	}
	p, err := c.Parent(res - 1)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// Children returns the 7 resolution+1 children (6 for pentagon parents).
func (g *Grid) Children(cell string) ([]string, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	res := c.Resolution()
	if res == MaxRes {
		return nil, fmt.Errorf("cell %q already at resolution %d: %w", cell, MaxRes, ErrHierarchy)
	}
	kids, err := c.Children(res + 1)
	if err != nil {
		return nil, fmt.Errorf("h3 children: %w", err)
	}
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.String())
	}
	return out, nil
}

// IsPentagon reports whether cell is one of the 12 pentagon cells of its
// resolution.
func (g *Grid) IsPentagon(cell string) (bool, error) {
	c, err := parse(cell)
	if err != nil {
		return false, err
	}
	return c.IsPentagon(), nil
}

func (g *Grid) CellWidthKm(res int) float64 {
	if res < MinRes || res > MaxRes {
		return 0
	}
	return 2 * avgEdgeKm[res]
}

// Level reports the resolution encoded in the cell.
func (g *Grid) Level(cell string) (int, error) {
	c, err := parse(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}
