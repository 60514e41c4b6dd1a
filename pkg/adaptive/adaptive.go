// Package adaptive maps a requested query radius to the precision or level
// a caller should query against. The thresholds are a deliberate, named
// step function: the chosen bucket decides which precomputed index gets
// scanned, so the boundaries must be testable rather than heuristic.
package adaptive

import (
	"fmt"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

// Radius thresholds in kilometers. Fine-grained cells up to FineRadiusKm,
// medium up to MediumRadiusKm, coarse beyond.
const (
	FineRadiusKm   = 2.0
	MediumRadiusKm = 10.0
)

// Ladder is one scheme's radius-to-level step function.
type Ladder struct {
	Scheme string
	Fine   int
	Medium int
	Coarse int
}

// Per-scheme ladders, sized so a covering at the chosen level stays within
// the default cell cap for its bucket.
var (
	Geohash = Ladder{Scheme: "geohash", Fine: 6, Medium: 5, Coarse: 4}
	S2      = Ladder{Scheme: "s2", Fine: 13, Medium: 11, Coarse: 9}
	H3      = Ladder{Scheme: "h3", Fine: 8, Medium: 7, Coarse: 5}
)

// ForScheme returns the ladder registered for a scheme name.
func ForScheme(scheme string) (Ladder, error) {
	switch scheme {
	case Geohash.Scheme:
		return Geohash, nil
	case S2.Scheme:
		return S2, nil
	case H3.Scheme:
		return H3, nil
	default:
		return Ladder{}, fmt.Errorf("no adaptive ladder for scheme %q", scheme)
	}
}

// LevelFor buckets radiusKm into the ladder.
func (l Ladder) LevelFor(radiusKm float64) (int, error) {
	if radiusKm < 0 {
		return 0, fmt.Errorf("radius %v km: %w", radiusKm, geo.ErrNegativeRadius)
	}
	switch {
	case radiusKm <= FineRadiusKm:
		return l.Fine, nil
	case radiusKm <= MediumRadiusKm:
		return l.Medium, nil
	default:
		return l.Coarse, nil
	}
}
