package records

import (
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/require"

	"github.com/pdok/rasterref"
)

// memSource is a minimal source whose codec round-trips its metadata as
// JSON. It counts reads so tests can verify codecs never materialize.
type memSource struct {
	Name     string      `json:"name"`
	Crs      string      `json:"crs"`
	Bbox     geom.Extent `json:"bbox"`
	NumCols  int64       `json:"cols"`
	NumRows  int64       `json:"rows"`
	CellKind string      `json:"cellType"`
	reads    atomic.Int64
}

func newMemSource() *memSource {
	return &memSource{
		Name:     "test",
		Crs:      "EPSG:3857",
		Bbox:     geom.Extent{0, 0, 100, 100},
		NumCols:  100,
		NumRows:  100,
		CellKind: "int16",
	}
}

func (s *memSource) Format() string      { return "mem" }
func (s *memSource) URI() string         { return "mem://" + s.Name }
func (s *memSource) CRS() rasterref.CRS  { return rasterref.CRS(s.Crs) }
func (s *memSource) Extent() geom.Extent { return s.Bbox }
func (s *memSource) CellType() rasterref.CellType {
	ct, _ := rasterref.ParseCellType(s.CellKind)
	return ct
}
func (s *memSource) BandCount() int { return 1 }
func (s *memSource) Cols() int64    { return s.NumCols }
func (s *memSource) Rows() int64    { return s.NumRows }
func (s *memSource) BlockLayout() (rasterref.BlockLayout, bool) {
	return rasterref.BlockLayout{}, false
}
func (s *memSource) NativeTiling() []geom.Extent { return nil }

func (s *memSource) Read(ext geom.Extent) (*rasterref.Tile, error) {
	s.reads.Add(1)
	grid := rasterref.SourceGrid(s)
	bounds := grid.BoundsFor(ext)
	return rasterref.NewNoDataTile(grid.ExtentFor(bounds), s.CRS(), s.CellType(), bounds.Cols(), bounds.Rows()), nil
}

type memCodec struct{}

func (memCodec) Format() string { return "mem" }

func (memCodec) Encode(src rasterref.Source) ([]byte, error) {
	return json.Marshal(src.(*memSource))
}

func (memCodec) Decode(blob []byte) (rasterref.Source, error) {
	var src memSource
	if err := json.Unmarshal(blob, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.Register(memCodec{}))
	return registry
}

func TestRegistry_Register(t *testing.T) {
	registry := newTestRegistry(t)
	require.Error(t, registry.Register(memCodec{}), "duplicate format")

	require.Equal(t, []string{"mem"}, registry.Formats())
}

func TestRoundTrip(t *testing.T) {
	registry := newTestRegistry(t)
	src := newMemSource()

	tests := []struct {
		name string
		ref  func(t *testing.T) *rasterref.Ref
	}{
		{name: "whole extent", ref: func(t *testing.T) *rasterref.Ref {
			return rasterref.New(src)
		}},
		{name: "windowed", ref: func(t *testing.T) *rasterref.Ref {
			ref, err := rasterref.NewWindow(src, geom.Extent{25, 0, 75, 100})
			require.NoError(t, err)
			return ref
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := tt.ref(t)
			record, err := registry.Marshal(ref)
			require.NoError(t, err)

			got, err := registry.Unmarshal(record)
			require.NoError(t, err)

			require.Equal(t, ref.CRS(), got.CRS())
			require.Equal(t, ref.Extent(), got.Extent())
			require.Equal(t, ref.CellType(), got.CellType())
			require.Equal(t, ref.GridBounds(), got.GridBounds())
			window, windowed := ref.Window()
			gotWindow, gotWindowed := got.Window()
			require.Equal(t, windowed, gotWindowed)
			require.Equal(t, window, gotWindow)

			require.Equal(t, int64(0), src.reads.Load(), "the codec must not materialize")
		})
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	registry := newTestRegistry(t)
	ref, err := rasterref.NewWindow(newMemSource(), geom.Extent{25, 0, 75, 100})
	require.NoError(t, err)
	record, err := registry.Marshal(ref)
	require.NoError(t, err)

	tests := []struct {
		name   string
		record []byte
	}{
		{name: "empty", record: nil},
		{name: "unsupported version", record: append([]byte{99}, record[1:]...)},
		{name: "truncated inside tag", record: record[:2]},
		{name: "truncated inside source field", record: record[:8]},
		{name: "truncated before window flag", record: record[:len(record)-33]},
		{name: "truncated inside window bounds", record: record[:len(record)-5]},
		{name: "invalid window flag", record: func() []byte {
			r := append([]byte(nil), record...)
			r[len(r)-33] = 7
			return r
		}()},
		{name: "trailing bytes", record: append(append([]byte(nil), record...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Unmarshal(tt.record)
			require.Nil(t, got, "no partial reference on decode failure")
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestUnmarshal_UnknownFormat(t *testing.T) {
	registry := newTestRegistry(t)
	record, err := registry.Marshal(rasterref.New(newMemSource()))
	require.NoError(t, err)

	got, err := NewRegistry().Unmarshal(record)
	require.Nil(t, got)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestUnmarshal_EmptyWindowRejected(t *testing.T) {
	registry := newTestRegistry(t)
	ref, err := rasterref.NewWindow(newMemSource(), geom.Extent{25, 0, 75, 100})
	require.NoError(t, err)
	record, err := registry.Marshal(ref)
	require.NoError(t, err)

	// zero out the window bounds: minx == maxx
	for i := len(record) - 32; i < len(record); i++ {
		record[i] = 0
	}
	got, err := registry.Unmarshal(record)
	require.Nil(t, got)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDefaultRegistry(t *testing.T) {
	require.NoError(t, Register(memCodec{}))

	ref := rasterref.New(newMemSource())
	record, err := Marshal(ref)
	require.NoError(t, err)
	got, err := Unmarshal(record)
	require.NoError(t, err)
	require.Equal(t, ref.Extent(), got.Extent())
}
