package rasterref

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CellType is the numeric encoding of every pixel value in a raster:
// its width, signedness and no-data convention.
type CellType uint8

const (
	CellTypeUnknown CellType = iota
	UInt8
	Int16
	UInt16
	Int32
	Float32
	Float64
)

// Size is the width of one cell in bytes.
func (ct CellType) Size() int {
	switch ct {
	case UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

func (ct CellType) String() string {
	switch ct {
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseCellType parses the string form as used in source descriptors.
func ParseCellType(s string) (CellType, error) {
	for _, ct := range []CellType{UInt8, Int16, UInt16, Int32, Float32, Float64} {
		if ct.String() == s {
			return ct, nil
		}
	}
	return CellTypeUnknown, fmt.Errorf(`unknown cell type: %v`, s)
}

// NoData is the value marking a cell with no data.
// Unsigned types use 0, signed integer types their minimum, floats NaN.
func (ct CellType) NoData() float64 {
	switch ct {
	case UInt8, UInt16:
		return 0
	case Int16:
		return math.MinInt16
	case Int32:
		return math.MinInt32
	case Float32, Float64:
		return math.NaN()
	default:
		return math.NaN()
	}
}

// IsNoData reports whether v is the no-data value of this cell type.
func (ct CellType) IsNoData(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return v == ct.NoData()
}

// Value decodes cell i from a little-endian buffer.
func (ct CellType) Value(buf []byte, i int) float64 {
	switch ct {
	case UInt8:
		return float64(buf[i])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	case UInt16:
		return float64(binary.LittleEndian.Uint16(buf[i*2:]))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(buf[i*4:])))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	default:
		return math.NaN()
	}
}

// SetValue encodes v into cell i of a little-endian buffer.
func (ct CellType) SetValue(buf []byte, i int, v float64) {
	switch ct {
	case UInt8:
		buf[i] = uint8(v)
	case Int16:
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v)))
	case UInt16:
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	case Int32:
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(v)))
	case Float32:
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
}

// Fill sets every cell in the buffer to v.
func (ct CellType) Fill(buf []byte, v float64) {
	n := len(buf) / ct.Size()
	for i := 0; i < n; i++ {
		ct.SetValue(buf, i, v)
	}
}
