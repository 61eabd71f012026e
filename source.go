package rasterref

import (
	"github.com/go-spatial/geom"

	"github.com/pdok/rasterref/gridhelp"
)

// BlockLayout describes the internal block decomposition a raster file
// uses for storage, in pixels per block.
type BlockLayout struct {
	Width  int64
	Height int64
}

// Source is a single logical raster that references are built over.
// The metadata methods are I/O free and stable for the lifetime of the
// source. A source may be shared read-only by many references and must
// support concurrent Read calls.
type Source interface {
	// Format is the type tag a record codec is registered under.
	Format() string
	// URI locates the underlying file or object, for codecs and logging.
	URI() string
	CRS() CRS
	Extent() geom.Extent
	CellType() CellType
	BandCount() int
	// Cols and Rows are the total pixel dimensions of the source.
	Cols() int64
	Rows() int64
	// BlockLayout reports the native block size, if the source has one.
	BlockLayout() (BlockLayout, bool)
	// NativeTiling returns the extents of the source's internal blocks in
	// row-major order, or nil when the source has no internal tiling.
	NativeTiling() []geom.Extent
	// Read performs a synchronous windowed read. The returned tile holds
	// exactly one band and matches the grid bounds of the requested
	// extent; cells outside the source's populated area are no-data.
	Read(geom.Extent) (*Tile, error)
}

// SourceGrid is the pixel grid declared by a source.
func SourceGrid(src Source) gridhelp.Grid {
	return gridhelp.Grid{Extent: src.Extent(), Cols: src.Cols(), Rows: src.Rows()}
}

// BlockTiling computes the native tiling for a source with the given
// block layout: the extents of all blocks in row-major order, with the
// rightmost and bottommost blocks clipped to the source's grid.
func BlockTiling(grid gridhelp.Grid, layout BlockLayout) []geom.Extent {
	across := gridhelp.CeilDiv(grid.Cols, layout.Width)
	down := gridhelp.CeilDiv(grid.Rows, layout.Height)
	tiling := make([]geom.Extent, 0, across*down)
	for row := int64(0); row < down; row++ {
		for col := int64(0); col < across; col++ {
			bounds := gridhelp.Bounds{
				col * layout.Width,
				row * layout.Height,
				gridhelp.Clamp((col+1)*layout.Width-1, 0, grid.Cols-1),
				gridhelp.Clamp((row+1)*layout.Height-1, 0, grid.Rows-1),
			}
			tiling = append(tiling, grid.ExtentFor(bounds))
		}
	}
	return tiling
}
