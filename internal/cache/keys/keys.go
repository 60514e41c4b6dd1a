// Package keys builds cache keys for covering queries. Coordinates are
// quantized so requests that differ below index resolution share an entry,
// and the raw descriptor is fingerprinted so keys stay short and safe for
// any backend.
package keys

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ~0.1m of latitude; differences below this never change a covering.
const coordGrain = 1e-6

func quantize(v float64) float64 {
	if v >= 0 {
		return float64(int64(v/coordGrain+0.5)) * coordGrain
	}
	return float64(int64(v/coordGrain-0.5)) * coordGrain
}

// Cover keys a ring-expansion covering request.
func Cover(scheme string, level int, lat, lng, radiusKm float64, maxCells int) string {
	desc := fmt.Sprintf("cover:%s:%d:%.6f:%.6f:%.3f:%d",
		scheme, level, quantize(lat), quantize(lng), radiusKm, maxCells)
	return fmt.Sprintf("%s:f=%016x", desc, xxhash.Sum64String(desc))
}

// Range keys a curve-scheme key-range request.
func Range(precision int, lat, lng, radiusKm float64) string {
	desc := fmt.Sprintf("range:%d:%.6f:%.6f:%.3f",
		precision, quantize(lat), quantize(lng), radiusKm)
	return fmt.Sprintf("%s:f=%016x", desc, xxhash.Sum64String(desc))
}
