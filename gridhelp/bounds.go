package gridhelp

// Bounds represents an inclusive integer pixel window as
// mincol, minrow, maxcol and maxrow.
type Bounds [4]int64

// MinCol is the leftmost column of the window.
func (b Bounds) MinCol() int64 {
	return b[0]
}

// MinRow is the topmost row of the window.
func (b Bounds) MinRow() int64 {
	return b[1]
}

// MaxCol is the rightmost column of the window, inclusive.
func (b Bounds) MaxCol() int64 {
	return b[2]
}

// MaxRow is the bottommost row of the window, inclusive.
func (b Bounds) MaxRow() int64 {
	return b[3]
}

// Cols is the width of the window in pixels.
func (b Bounds) Cols() int64 {
	return b[2] - b[0] + 1
}

// Rows is the height of the window in pixels.
func (b Bounds) Rows() int64 {
	return b[3] - b[1] + 1
}

// Size is the number of pixels in the window.
func (b Bounds) Size() int64 {
	return b.Cols() * b.Rows()
}

// Center returns the column and row at the center of the window.
func (b Bounds) Center() (col, row int64) {
	return b[0] + b.Cols()/2, b[1] + b.Rows()/2
}

// Contains reports whether the given column and row fall inside the window.
func (b Bounds) Contains(col, row int64) bool {
	return BetweenInc(col, b[0], b[2]) && BetweenInc(row, b[1], b[3])
}

// IntersectBounds returns the overlapping window of a and b, if any.
func IntersectBounds(a, b Bounds) (Bounds, bool) {
	i := Bounds{
		max(a[0], b[0]),
		max(a[1], b[1]),
		min(a[2], b[2]),
		min(a[3], b[3]),
	}
	if i[2] < i[0] || i[3] < i[1] {
		return Bounds{}, false
	}
	return i, true
}
