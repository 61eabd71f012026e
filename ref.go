package rasterref

import (
	"fmt"
	"sync"

	"github.com/go-spatial/geom"
	"github.com/muesli/reflow/truncate"

	"github.com/pdok/rasterref/gridhelp"
)

// Ref is a lazy reference to one band of pixels in a Source: the source
// plus an optional sub-window. Creating, copying (via Narrow/Split),
// encoding and decoding a Ref never performs I/O; the windowed read runs
// on the first Tile (or TileView pixel) access and at most once per
// instance. A Ref never mutates after construction, except for its
// internal materialization cell.
type Ref struct {
	src    Source
	window *geom.Extent

	mu       sync.Mutex
	realized bool
	tile     *Tile
	err      error
}

// New returns a reference covering the source's whole extent.
func New(src Source) *Ref {
	return &Ref{src: src}
}

// NewWindow returns a reference over a sub-window of the source.
// The window must have positive area; it need not be contained in the
// source's extent (materializing outside the populated area yields
// no-data cells, not an error).
func NewWindow(src Source, window geom.Extent) (*Ref, error) {
	if window.XSpan() <= 0 || window.YSpan() <= 0 {
		return nil, fmt.Errorf("window %v is empty", window)
	}
	w := window
	return &Ref{src: src, window: &w}, nil
}

// Source returns the underlying source handle.
func (r *Ref) Source() Source {
	return r.src
}

// Window returns the sub-window, if the reference has one.
func (r *Ref) Window() (geom.Extent, bool) {
	if r.window == nil {
		return geom.Extent{}, false
	}
	return *r.window, true
}

func (r *Ref) CRS() CRS {
	return r.src.CRS()
}

// Extent is the sub-window if present, else the source's full extent.
func (r *Ref) Extent() geom.Extent {
	if r.window != nil {
		return *r.window
	}
	return r.src.Extent()
}

// GridBounds is the integer pixel window of Extent under the source's
// declared pixel grid. Pure arithmetic, recomputed on every call.
func (r *Ref) GridBounds() gridhelp.Bounds {
	if r.window == nil {
		return SourceGrid(r.src).Full()
	}
	return SourceGrid(r.src).BoundsFor(*r.window)
}

// Cols is the width of GridBounds in pixels.
func (r *Ref) Cols() int64 {
	return r.GridBounds().Cols()
}

// Rows is the height of GridBounds in pixels.
func (r *Ref) Rows() int64 {
	return r.GridBounds().Rows()
}

func (r *Ref) CellType() CellType {
	return r.src.CellType()
}

// View returns a Raster over this reference with eager footprint
// metadata and lazy pixels.
func (r *Ref) View() TileView {
	return TileView{ref: r}
}

// Tile materializes the reference and packages the pixels with the
// reference's extent, CRS and cell type. The underlying read runs at
// most once per instance: concurrent first callers serialize on a lock
// and all callers observe the same tile or the same error.
func (r *Ref) Tile() (*Tile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.realized {
		return r.tile, r.err
	}
	r.tile, r.err = r.realize()
	r.realized = true
	return r.tile, r.err
}

func (r *Ref) realize() (*Tile, error) {
	if bands := r.src.BandCount(); bands != 1 {
		return nil, &PreconditionError{
			Reason: fmt.Sprintf("source %v has %v bands, a raster reference covers exactly 1", r.src.URI(), bands),
		}
	}
	read, err := r.src.Read(r.Extent())
	if err != nil {
		return nil, &ReadError{URI: r.src.URI(), Window: r.Extent(), Err: err}
	}
	data, err := read.Data()
	if err != nil {
		return nil, &ReadError{URI: r.src.URI(), Window: r.Extent(), Err: err}
	}
	if read.Cols() != r.Cols() || read.Rows() != r.Rows() {
		return nil, &ReadError{
			URI:    r.src.URI(),
			Window: r.Extent(),
			Err:    fmt.Errorf("source returned a %vx%v tile for a %vx%v window", read.Cols(), read.Rows(), r.Cols(), r.Rows()),
		}
	}
	return NewTile(r.Extent(), r.CRS(), r.CellType(), r.Cols(), r.Rows(), data)
}

// SplitToNative decomposes the reference along the source's internal
// block layout: one child reference per native block whose extent
// overlaps this reference's extent with positive area. Children keep the
// full block extent rather than the clipped overlap, so downstream
// readers always fetch whole blocks. A source without native tiling
// yields the reference itself, unchanged.
func (r *Ref) SplitToNative() []*Ref {
	tiling := r.src.NativeTiling()
	if len(tiling) == 0 {
		return []*Ref{r}
	}
	extent := r.Extent()
	var refs []*Ref
	for i := range tiling {
		if !gridhelp.Intersects(extent, tiling[i]) {
			continue
		}
		block := tiling[i]
		refs = append(refs, &Ref{src: r.src, window: &block})
	}
	return refs
}

// Equal reports value equality: same source handle and same sub-window.
// The materialization state does not take part in equality.
func (r *Ref) Equal(other *Ref) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.src != other.src {
		return false
	}
	if (r.window == nil) != (other.window == nil) {
		return false
	}
	return r.window == nil || *r.window == *other.window
}

const stringURIWidth = 40

func (r *Ref) String() string {
	uri := truncate.StringWithTail(r.src.URI(), stringURIWidth, "...")
	if r.window == nil {
		return fmt.Sprintf("Ref(%v %v)", r.src.Format(), uri)
	}
	return fmt.Sprintf("Ref(%v %v %v)", r.src.Format(), uri, *r.window)
}
