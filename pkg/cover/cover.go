// Package cover computes the set of index cells a range/equality-capable
// key-value store must scan to answer a proximity or bounding-box query:
// a single ordered key range for the curve scheme, and a ring-expansion
// covering for the grid schemes.
package cover

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

const (
	// DefaultMaxCells is used when the caller passes maxCells = 0.
	DefaultMaxCells = 100
	// MaxCellsCeiling is the hard safety cap on covering size.
	MaxCellsCeiling = 500
)

var ErrMaxCells = errors.New("max cells out of range")

// Grid is the contract both hierarchical grid schemes expose. All methods
// are pure; implementations are safe for concurrent use.
type Grid interface {
	Scheme() string
	Encode(p geo.Point, level int) (string, error)
	Decode(cell string) (geo.Point, error)
	DecodeBounds(cell string) (geo.Rect, error)
	Neighbors(cell string) ([]string, error)
	Parent(cell string) (string, error)
	Children(cell string) ([]string, error)
	CellWidthKm(level int) float64
	Levels() (min, max int)
}

// CellDistance pairs a covering cell with its center's distance from the
// query center.
type CellDistance struct {
	Cell       string  `json:"cell"`
	DistanceKm float64 `json:"distance_km"`
}

// Covering is an ordered covering result. When Complete is false the cap
// was reached first and Cells holds only the closest cells found so far.
type Covering struct {
	Cells    []CellDistance `json:"cells"`
	Complete bool           `json:"complete"`
	Visited  int            `json:"visited"`
}

// CellsForRadius covers the circle (center, radiusKm) at the given level.
func CellsForRadius(g Grid, center geo.Point, radiusKm float64, level, maxCells int) (Covering, error) {
	rect, err := geo.RectFromCenter(center, radiusKm)
	if err != nil {
		return Covering{}, err
	}
	return CellsForBoundingBox(g, rect, level, maxCells)
}

// CellsForBoundingBox covers rect with cells at the given level via
// breadth-first ring expansion from the center cell. The rect is first
// grown by one cell width so boundary cells whose centers fall just outside
// are not missed.
func CellsForBoundingBox(g Grid, rect geo.Rect, level, maxCells int) (Covering, error) {
	switch {
	case maxCells == 0:
		maxCells = DefaultMaxCells
	case maxCells < 0 || maxCells > MaxCellsCeiling:
		return Covering{}, fmt.Errorf("maxCells %d not in [1,%d]: %w", maxCells, MaxCellsCeiling, ErrMaxCells)
	}

	center := rect.Center()
	expanded := expandByCellWidth(rect, g.CellWidthKm(level))

	seed, err := g.Encode(center, level)
	if err != nil {
		return Covering{}, err
	}

	visited := map[string]struct{}{seed: {}}
	result := []CellDistance{{Cell: seed, DistanceKm: 0}}
	frontier := []string{seed}
	var next []string
	complete := true

search:
	for len(frontier) > 0 {
		next = next[:0]
		for _, cell := range frontier {
			ns, err := g.Neighbors(cell)
			if err != nil {
				return Covering{}, fmt.Errorf("neighbors of %q: %w", cell, err)
			}
			for _, n := range ns {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = struct{}{}
				nc, err := g.Decode(n)
				if err != nil {
					return Covering{}, fmt.Errorf("decode %q: %w", n, err)
				}
				if !expanded.Contains(nc) {
					continue
				}
				result = append(result, CellDistance{Cell: n, DistanceKm: geo.DistanceKm(center, nc)})
				next = append(next, n)
				if len(result) >= maxCells {
					// Frontier not exhausted; area may remain uncovered.
					complete = false
					break search
				}
			}
		}
		frontier, next = next, frontier
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].Cell < result[j].Cell
	})
	if len(result) > maxCells {
		result = result[:maxCells]
		complete = false
	}

	return Covering{Cells: result, Complete: complete, Visited: len(visited)}, nil
}

// expandByCellWidth grows rect outward by widthKm on every side, with the
// usual cos(lat) correction for longitude.
func expandByCellWidth(rect geo.Rect, widthKm float64) geo.Rect {
	if widthKm <= 0 {
		return rect
	}
	latDelta := widthKm / geo.KmPerDegreeLat
	cosLat := math.Cos(rect.Center().Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := widthKm / (geo.KmPerDegreeLat * cosLat)

	span := rect.NE.Lng - rect.SW.Lng
	if rect.Wraps() {
		span += 360
	}
	if span+2*lngDelta >= 360 {
		// Expansion covers the full longitude range.
		return geo.Rect{
			SW: geo.Point{Lat: maxf(rect.SW.Lat-latDelta, -90), Lng: -180},
			NE: geo.Point{Lat: minf(rect.NE.Lat+latDelta, 90), Lng: 180},
		}
	}
	return geo.Rect{
		SW: geo.Point{Lat: maxf(rect.SW.Lat-latDelta, -90), Lng: geo.WrapLng(rect.SW.Lng - lngDelta)},
		NE: geo.Point{Lat: minf(rect.NE.Lat+latDelta, 90), Lng: geo.WrapLng(rect.NE.Lng + lngDelta)},
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}