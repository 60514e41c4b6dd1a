package cover

import (
	"github.com/mohammed-shakir/geocell/pkg/geo"
	"github.com/mohammed-shakir/geocell/pkg/geohash"
)

// KeyRange is a single ordered geohash key range suitable for a range scan.
// Because the curve is a 1-D ordering of 2-D space the range is a superset
// of the query rectangle: consumers must post-filter with exact containment
// or distance checks. That trade-off is by contract, not a defect.
type KeyRange struct {
	Min string `json:"min_key"`
	Max string `json:"max_key"`
}

// RangeForRect approximates rect with the range [encode(SW), encode(NE)]
// at the given precision.
func RangeForRect(rect geo.Rect, precision int) (KeyRange, error) {
	minKey, err := geohash.Encode(rect.SW.Lat, rect.SW.Lng, precision)
	if err != nil {
		return KeyRange{}, err
	}
	maxKey, err := geohash.Encode(rect.NE.Lat, rect.NE.Lng, precision)
	if err != nil {
		return KeyRange{}, err
	}
	return KeyRange{Min: minKey, Max: maxKey}, nil
}

// RangeForRadius composes RectFromCenter with RangeForRect.
func RangeForRadius(center geo.Point, radiusKm float64, precision int) (KeyRange, error) {
	rect, err := geo.RectFromCenter(center, radiusKm)
	if err != nil {
		return KeyRange{}, err
	}
	return RangeForRect(rect, precision)
}
