package rasterref

import (
	"fmt"

	"github.com/go-spatial/geom"
)

// Raster is a single band of pixels with a known footprint. The footprint
// (extent, CRS, cell type, dimensions) is always available without I/O;
// obtaining the pixel buffer may not be.
type Raster interface {
	CRS() CRS
	Extent() geom.Extent
	CellType() CellType
	Cols() int64
	Rows() int64
	// Data returns the pixel buffer in row-major order, little-endian
	// cells per CellType.
	Data() ([]byte, error)
}

// Tile is a realized raster: footprint plus an in-memory pixel buffer.
type Tile struct {
	extent   geom.Extent
	crs      CRS
	cellType CellType
	cols     int64
	rows     int64
	data     []byte
}

// NewTile wraps a pixel buffer. The buffer length must match the declared
// dimensions and cell type exactly.
func NewTile(extent geom.Extent, crs CRS, cellType CellType, cols, rows int64, data []byte) (*Tile, error) {
	want := cols * rows * int64(cellType.Size())
	if int64(len(data)) != want {
		return nil, fmt.Errorf("tile buffer is %v bytes, %vx%v %v needs %v", len(data), cols, rows, cellType, want)
	}
	return &Tile{extent: extent, crs: crs, cellType: cellType, cols: cols, rows: rows, data: data}, nil
}

// NewNoDataTile returns a tile with every cell set to the cell type's
// no-data value.
func NewNoDataTile(extent geom.Extent, crs CRS, cellType CellType, cols, rows int64) *Tile {
	data := make([]byte, cols*rows*int64(cellType.Size()))
	cellType.Fill(data, cellType.NoData())
	return &Tile{extent: extent, crs: crs, cellType: cellType, cols: cols, rows: rows, data: data}
}

func (t *Tile) CRS() CRS {
	return t.crs
}

func (t *Tile) Extent() geom.Extent {
	return t.extent
}

func (t *Tile) CellType() CellType {
	return t.cellType
}

func (t *Tile) Cols() int64 {
	return t.cols
}

func (t *Tile) Rows() int64 {
	return t.rows
}

func (t *Tile) Data() ([]byte, error) {
	return t.data, nil
}

// Value returns the cell at the given column and row.
func (t *Tile) Value(col, row int64) float64 {
	return t.cellType.Value(t.data, int(row*t.cols+col))
}

// SetValue sets the cell at the given column and row.
func (t *Tile) SetValue(col, row int64, v float64) {
	t.cellType.SetValue(t.data, int(row*t.cols+col), v)
}

// TileView is a Raster over an unrealized Ref. The footprint is served
// from the reference's metadata without I/O; pixel access goes through
// the reference's one-time materialization, so a view never duplicates
// a read the reference (or another view on it) already performed.
type TileView struct {
	ref *Ref
}

func (v TileView) CRS() CRS {
	return v.ref.CRS()
}

func (v TileView) Extent() geom.Extent {
	return v.ref.Extent()
}

func (v TileView) CellType() CellType {
	return v.ref.CellType()
}

func (v TileView) Cols() int64 {
	return v.ref.Cols()
}

func (v TileView) Rows() int64 {
	return v.ref.Rows()
}

func (v TileView) Data() ([]byte, error) {
	tile, err := v.ref.Tile()
	if err != nil {
		return nil, err
	}
	return tile.Data()
}

// Value returns the cell at the given column and row, materializing the
// underlying reference on first access.
func (v TileView) Value(col, row int64) (float64, error) {
	tile, err := v.ref.Tile()
	if err != nil {
		return 0, err
	}
	return tile.Value(col, row), nil
}
