// Package zindex produces Z-order (Morton) keys for spatial
// partitioning: rows carrying references to nearby pixel windows get
// nearby keys, so range-partitioning the keys keeps spatial neighbors
// on the same worker.
package zindex

import (
	"fmt"
	"math"

	"github.com/pdok/rasterref/gridhelp"
)

type Z = uint

var (
	masks = [...]uint{
		0b0101010101010101010101010101010101010101010101010101010101010101,
		0b0011001100110011001100110011001100110011001100110011001100110011,
		0b0000111100001111000011110000111100001111000011110000111100001111,
		0b0000000011111111000000001111111100000000111111110000000011111111,
		0b0000000000000000111111111111111100000000000000001111111111111111,
		0b0000000000000000000000000000000011111111111111111111111111111111,
	}
	shifts = [...]uint{0, 1, 2, 4, 8, 16}
)

// ToZ interleaves the bits of col and row. Both must fit in 32 bits.
func ToZ(col, row uint) (z Z, ok bool) {
	ok = col <= math.MaxUint32 && row <= math.MaxUint32
	for i := 4; i >= 0; i-- {
		col = (col | (col << shifts[i+1])) & masks[i]
		row = (row | (row << shifts[i+1])) & masks[i]
	}
	z = col | (row << 1)
	return z, ok
}

func MustToZ(col, row uint) Z {
	z, ok := ToZ(col, row)
	if !ok {
		panic(fmt.Errorf(`cannot make Z out of %v and %v`, col, row))
	}
	return z
}

// FromZ de-interleaves a key back into a column and row.
func FromZ(z Z) (col, row uint) {
	col = z
	row = z >> 1
	for i := 0; i <= 5; i++ {
		col = (col | (col >> shifts[i])) & masks[i]
		row = (row | (row >> shifts[i])) & masks[i]
	}
	return col, row
}

// Key is the Z-order key of a pixel window, taken at its center cell.
// Windows (partially) left of cq above the grid are keyed as if clamped
// to the first column cq row.
func Key(b gridhelp.Bounds) (Z, bool) {
	col, row := b.Center()
	return ToZ(uint(gridhelp.Clamp(col, 0, math.MaxInt64)), uint(gridhelp.Clamp(row, 0, math.MaxInt64)))
}

// BlockKey is the Z-order key of the native block containing the center
// of a pixel window, under blocks of blockWidth x blockHeight pixels.
func BlockKey(b gridhelp.Bounds, blockWidth, blockHeight int64) (Z, bool) {
	col, row := b.Center()
	col = gridhelp.Clamp(col, 0, math.MaxInt64) / blockWidth
	row = gridhelp.Clamp(row, 0, math.MaxInt64) / blockHeight
	return ToZ(uint(col), uint(row))
}
