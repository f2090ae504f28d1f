package descramble

import (
	"fmt"
	"math"
	"strconv"
)

// CellSize is the fixed edge length in pixels of one scrambled cell.
const CellSize = 128

// maxCells is the largest cell count the viewer's PRNG discipline supports:
// one MT19937 state array worth of draws.
const maxCells = mtN

// Geometry describes one scrambled raster: the true (pre-padding) pixel
// dimensions and the permutation seed taken from the encoded file name.
type Geometry struct {
	Width  int
	Height int
	Seed   uint32
}

// Grid returns the cell grid for the geometry: columns x rows of 128px
// cells, the rightmost column and bottom row covering any ragged remainder
// via padding.
func (g Geometry) Grid() (cols, rows int) {
	cols = (g.Width + CellSize - 1) / CellSize
	rows = (g.Height + CellSize - 1) / CellSize
	return cols, rows
}

// SeedFromName extracts the permutation seed from a scrambled variant's
// encoded name: hex digits five through eleven.
func SeedFromName(name string) (uint32, error) {
	if len(name) < 12 {
		return 0, fmt.Errorf("encoded name %q too short for a seed", name)
	}
	seed, err := strconv.ParseUint(name[5:12], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("encoded name %q has no hex seed: %w", name, err)
	}
	return uint32(seed), nil
}

// permutation returns the canonical-to-scrambled cell mapping for n cells:
// perm[i] is the scrambled index holding the cell whose true position is i.
//
// The viewer shuffles [0,n) with a Fisher-Yates walk whose k-th draw reads
// tempered MT words k and k+1 as a 53-bit float. That overlapping-pair
// discipline comes from the viewer resetting the MT cursor after every
// draw; it is load-bearing and must not be "fixed".
func permutation(seed uint32, n int) []int {
	src := newMTSource(seed)
	words := make([]uint32, n+1)
	for i := range words {
		words[i] = src.next()
	}

	forward := make([]int, n)
	for i := range forward {
		forward[i] = i
	}
	for k := 0; k < n; k++ {
		limit := n - 1 - k
		a := float64(words[k] >> 5)
		b := float64(words[k+1] >> 6)
		value := (a*67108864.0 + b) / 9007199254740992.0
		e := int(math.Floor(value * float64(limit+1)))
		forward[limit], forward[e] = forward[e], forward[limit]
	}

	// forward maps scrambled index -> canonical index; invert it.
	perm := make([]int, n)
	for scrambled, canonical := range forward {
		perm[canonical] = scrambled
	}
	return perm
}
