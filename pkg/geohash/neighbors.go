package geohash

import (
	"fmt"
	"strings"
)

// Direction names a cardinal shift of a geohash cell.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// The classical per-parity substitution tables. For each direction and key
// parity, neighborTable maps the last symbol to the symbol of the adjacent
// cell, and borderTable lists the symbols sitting on that edge of their
// parent, which require the parent itself to be shifted first. These encode
// a specific bit-adjacency mapping and are carried verbatim; do not
// re-derive them.
var neighborTable = [4][2]string{
	North: {"p0r21436x8zb9dcf5h7kjnmqesgutwvy", "bc01fg45238967deuvhjyznpkmstqrwx"},
	South: {"14365h7k9dcfesgujnmqp0r2twvyx8zb", "238967debc01fg45kmstqrwxuvhjyznp"},
	East:  {"bc01fg45238967deuvhjyznpkmstqrwx", "p0r21436x8zb9dcf5h7kjnmqesgutwvy"},
	West:  {"238967debc01fg45kmstqrwxuvhjyznp", "14365h7k9dcfesgujnmqp0r2twvyx8zb"},
}

var borderTable = [4][2]string{
	North: {"prxz", "bcfguvyz"},
	South: {"028b", "0145hjnp"},
	East:  {"bcfguvyz", "prxz"},
	West:  {"0145hjnp", "028b"},
}

// Adjacent returns the same-precision neighbor of hash in the given
// direction. Border crossings recurse into the parent, bounded by the key
// length (at most 12 levels). At the world edge with no parent left the
// last symbol simply wraps within the table.
func Adjacent(hash string, dir Direction) (string, error) {
	if len(hash) < MinPrecision || len(hash) > MaxPrecision {
		return "", fmt.Errorf("length %d not in [%d,%d]: %w", len(hash), MinPrecision, MaxPrecision, ErrInvalidHash)
	}
	last := hash[len(hash)-1]
	parent := hash[:len(hash)-1]
	parity := len(hash) % 2 // 0 = even length, 1 = odd length

	if strings.IndexByte(borderTable[dir][parity], last) >= 0 && parent != "" {
		p, err := Adjacent(parent, dir)
		if err != nil {
			return "", err
		}
		parent = p
	}

	idx := strings.IndexByte(neighborTable[dir][parity], last)
	if idx < 0 {
		return "", fmt.Errorf("symbol %q not in alphabet: %w", last, ErrInvalidHash)
	}
	return parent + string(alphabet[idx]), nil
}

// Neighbors returns the 8 same-precision neighbors of hash in the order
// N, NE, E, SE, S, SW, W, NW. Diagonals compose two cardinal shifts.
func Neighbors(hash string) ([]string, error) {
	n, err := Adjacent(hash, North)
	if err != nil {
		return nil, err
	}
	s, err := Adjacent(hash, South)
	if err != nil {
		return nil, err
	}
	e, err := Adjacent(hash, East)
	if err != nil {
		return nil, err
	}
	w, err := Adjacent(hash, West)
	if err != nil {
		return nil, err
	}
	ne, err := Adjacent(n, East)
	if err != nil {
		return nil, err
	}
	se, err := Adjacent(s, East)
	if err != nil {
		return nil, err
	}
	sw, err := Adjacent(s, West)
	if err != nil {
		return nil, err
	}
	nw, err := Adjacent(n, West)
	if err != nil {
		return nil, err
	}
	return []string{n, ne, e, se, s, sw, w, nw}, nil
}
