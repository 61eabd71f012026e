// Package gridhelp maps spatial extents onto dense pixel grids.
// All extents are axis aligned, row 0 is the top row of the grid.
package gridhelp

import (
	"math"

	"github.com/go-spatial/geom"

	"golang.org/x/exp/constraints"
)

// Grid is a dense pixel grid covering an extent.
type Grid struct {
	Extent geom.Extent
	Cols   int64
	Rows   int64
}

// CellWidth is the horizontal size of one pixel in map units.
func (g Grid) CellWidth() float64 {
	return g.Extent.XSpan() / float64(g.Cols)
}

// CellHeight is the vertical size of one pixel in map units.
func (g Grid) CellHeight() float64 {
	return g.Extent.YSpan() / float64(g.Rows)
}

// BoundsFor returns the integer pixel window covered by ext.
// The window is not clamped to the grid: an extent (partially) outside
// the grid yields (partially) negative cq out-of-range columns and rows.
// An extent edge exactly on a cell edge does not select the next cell.
func (g Grid) BoundsFor(ext geom.Extent) Bounds {
	cw := g.CellWidth()
	ch := g.CellHeight()

	minCol := int64(math.Floor((ext.MinX() - g.Extent.MinX()) / cw))
	maxCol := int64(math.Ceil((ext.MaxX()-g.Extent.MinX())/cw)) - 1
	minRow := int64(math.Floor((g.Extent.MaxY() - ext.MaxY()) / ch))
	maxRow := int64(math.Ceil((g.Extent.MaxY()-ext.MinY())/ch)) - 1

	// a degenerate window still covers the cell it falls in
	if maxCol < minCol {
		maxCol = minCol
	}
	if maxRow < minRow {
		maxRow = minRow
	}
	return Bounds{minCol, minRow, maxCol, maxRow}
}

// ExtentFor is the inverse of BoundsFor: the extent covered by a pixel window.
func (g Grid) ExtentFor(b Bounds) geom.Extent {
	cw := g.CellWidth()
	ch := g.CellHeight()
	return geom.Extent{
		g.Extent.MinX() + float64(b.MinCol())*cw,
		g.Extent.MaxY() - float64(b.MaxRow()+1)*ch,
		g.Extent.MinX() + float64(b.MaxCol()+1)*cw,
		g.Extent.MaxY() - float64(b.MinRow())*ch,
	}
}

// Full is the window spanning the whole grid.
func (g Grid) Full() Bounds {
	return Bounds{0, 0, g.Cols - 1, g.Rows - 1}
}

// Intersects reports whether a and b overlap with strictly positive area.
// Extents that merely touch at an edge or corner do not intersect.
func Intersects(a, b geom.Extent) bool {
	return a.MinX() < b.MaxX() && b.MinX() < a.MaxX() &&
		a.MinY() < b.MaxY() && b.MinY() < a.MaxY()
}

// Intersection returns the overlap of a and b and whether there is any
// (in the strict sense of Intersects).
func Intersection(a, b geom.Extent) (geom.Extent, bool) {
	if !Intersects(a, b) {
		return geom.Extent{}, false
	}
	return geom.Extent{
		math.Max(a.MinX(), b.MinX()),
		math.Max(a.MinY(), b.MinY()),
		math.Min(a.MaxX(), b.MaxX()),
		math.Min(a.MaxY(), b.MaxY()),
	}, true
}

func Clamp[T constraints.Ordered](v, p, q T) T {
	if v < p {
		return p
	}
	if v > q {
		return q
	}
	return v
}

func BetweenInc[T constraints.Ordered](f, p, q T) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

// CeilDiv divides d by m rounding up. m must be positive.
func CeilDiv(d, m int64) int64 {
	return (d + m - 1) / m
}
