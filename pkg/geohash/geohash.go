// Package geohash implements the space-filling-curve cell scheme: base32
// keys produced by alternating binary subdivision of the coordinate domain,
// longitude first. Keys at precision p+1 extend their precision-p ancestor
// by one symbol, which is what makes prefix range scans work.
package geohash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/geocell/pkg/geo"
)

const (
	MinPrecision = 1
	MaxPrecision = 12

	alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"
)

var (
	ErrPrecision   = errors.New("geohash precision out of range")
	ErrInvalidHash = errors.New("invalid geohash")
)

// Approximate east-west cell extent in kilometers at the equator, indexed by
// precision. Used by adaptive selection and for documentation of the error
// bound per precision.
var cellWidthKm = [MaxPrecision + 1]float64{
	0, 5000, 1250, 156, 39.1, 4.89, 1.22, 0.153, 0.0382, 0.00477, 0.00119, 0.000149, 0.0000372,
}

func CellWidthKm(precision int) float64 {
	if precision < MinPrecision || precision > MaxPrecision {
		return 0
	}
	return cellWidthKm[precision]
}

func validatePrecision(precision int) error {
	if precision < MinPrecision || precision > MaxPrecision {
		return fmt.Errorf("precision %d not in [%d,%d]: %w", precision, MinPrecision, MaxPrecision, ErrPrecision)
	}
	return nil
}

// Encode returns the geohash of (lat,lng) at the given precision.
func Encode(lat, lng float64, precision int) (string, error) {
	if err := validatePrecision(precision); err != nil {
		return "", err
	}
	if _, err := geo.NewPoint(lat, lng); err != nil {
		return "", err
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	var b strings.Builder
	b.Grow(precision)

	even := true // longitude bit first
	ch := 0
	bit := 0
	for b.Len() < precision {
		if even {
			mid := (minLng + maxLng) / 2
			if lng >= mid {
				ch = ch<<1 | 1
				minLng = mid
			} else {
				ch <<= 1
				maxLng = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch = ch<<1 | 1
				minLat = mid
			} else {
				ch <<= 1
				maxLat = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			b.WriteByte(alphabet[ch])
			bit = 0
			ch = 0
		}
	}
	return b.String(), nil
}

// Decode returns the center of the cell named by hash.
func Decode(hash string) (geo.Point, error) {
	r, err := DecodeBounds(hash)
	if err != nil {
		return geo.Point{}, err
	}
	return r.Center(), nil
}

// DecodeBounds reverses the bit interleaving and returns the cell interval.
func DecodeBounds(hash string) (geo.Rect, error) {
	if len(hash) < MinPrecision || len(hash) > MaxPrecision {
		return geo.Rect{}, fmt.Errorf("length %d not in [%d,%d]: %w", len(hash), MinPrecision, MaxPrecision, ErrInvalidHash)
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	even := true
	for _, c := range hash {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return geo.Rect{}, fmt.Errorf("symbol %q not in alphabet: %w", c, ErrInvalidHash)
		}
		for mask := 16; mask > 0; mask >>= 1 {
			if even {
				mid := (minLng + maxLng) / 2
				if idx&mask != 0 {
					minLng = mid
				} else {
					maxLng = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if idx&mask != 0 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			even = !even
		}
	}
	return geo.Rect{
		SW: geo.Point{Lat: minLat, Lng: minLng},
		NE: geo.Point{Lat: maxLat, Lng: maxLng},
	}, nil
}
