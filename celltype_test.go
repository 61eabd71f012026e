package rasterref

import (
	"math"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/require"
)

func TestCellType_RoundTrip(t *testing.T) {
	tests := []struct {
		cellType CellType
		size     int
		value    float64
	}{
		{cellType: UInt8, size: 1, value: 200},
		{cellType: Int16, size: 2, value: -12345},
		{cellType: UInt16, size: 2, value: 54321},
		{cellType: Int32, size: 4, value: -1234567},
		{cellType: Float32, size: 4, value: 1.5},
		{cellType: Float64, size: 8, value: 1.25e100},
	}
	for _, tt := range tests {
		t.Run(tt.cellType.String(), func(t *testing.T) {
			require.Equal(t, tt.size, tt.cellType.Size())

			parsed, err := ParseCellType(tt.cellType.String())
			require.NoError(t, err)
			require.Equal(t, tt.cellType, parsed)

			buf := make([]byte, 4*tt.size)
			tt.cellType.SetValue(buf, 2, tt.value)
			require.Equal(t, tt.value, tt.cellType.Value(buf, 2))
			require.Equal(t, float64(0), tt.cellType.Value(buf, 1), "neighbors untouched")
		})
	}

	_, err := ParseCellType("int7")
	require.Error(t, err)
}

func TestCellType_NoData(t *testing.T) {
	require.Equal(t, float64(0), UInt8.NoData())
	require.Equal(t, float64(math.MinInt16), Int16.NoData())
	require.True(t, math.IsNaN(Float32.NoData()))

	require.True(t, Int16.IsNoData(math.MinInt16))
	require.False(t, Int16.IsNoData(0))
	require.True(t, Float64.IsNoData(math.NaN()))
	require.False(t, Float64.IsNoData(0))
}

func TestNewTile(t *testing.T) {
	extent := geom.Extent{0, 0, 10, 10}

	tile, err := NewTile(extent, "EPSG:28992", Int16, 10, 10, make([]byte, 200))
	require.NoError(t, err)
	require.Equal(t, int64(10), tile.Cols())

	_, err = NewTile(extent, "EPSG:28992", Int16, 10, 10, make([]byte, 199))
	require.Error(t, err, "buffer must match the declared window exactly")
}

func TestTile_Values(t *testing.T) {
	tile := NewNoDataTile(geom.Extent{0, 0, 10, 10}, "EPSG:28992", Int16, 10, 10)
	require.True(t, Int16.IsNoData(tile.Value(3, 4)))

	tile.SetValue(3, 4, 1500)
	require.Equal(t, float64(1500), tile.Value(3, 4))
	require.True(t, Int16.IsNoData(tile.Value(4, 3)))
}
