// Package records serializes raster references to a two-field binary
// record for use as a column value in a row-oriented table: field 0 is
// the encoded source (opaque to this package, delegated to a registered
// SourceCodec), field 1 an optional window extent. Encoding and decoding
// never materialize the reference.
package records

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-spatial/geom"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/rasterref"
)

const recordVersion byte = 1

// maxFieldLen caps the tag and source blob lengths in a record, so a
// corrupt length prefix cannot cause a huge allocation.
const maxFieldLen = 1 << 26

// SourceCodec encodes and decodes one Source implementation. Decode must
// be I/O free: it reconstructs a handle, it does not open the raster.
type SourceCodec interface {
	// Format is the type tag this codec dispatches on. It must equal the
	// Format() of the sources it encodes.
	Format() string
	Encode(rasterref.Source) ([]byte, error)
	Decode([]byte) (rasterref.Source, error)
}

// DecodeError means a malformed binary record; no partial reference is
// ever returned alongside it.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed raster reference record: %v: %v", e.Reason, e.Err)
	}
	return "malformed raster reference record: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Registry dispatches source codecs by format tag.
type Registry struct {
	codecs *orderedmap.OrderedMap[string, SourceCodec]
}

func NewRegistry() *Registry {
	return &Registry{codecs: orderedmap.New[string, SourceCodec]()}
}

// Register adds a codec. Registering two codecs for the same format is
// an error.
func (r *Registry) Register(codec SourceCodec) error {
	if _, taken := r.codecs.Get(codec.Format()); taken {
		return fmt.Errorf(`a codec for format %q is already registered`, codec.Format())
	}
	r.codecs.Set(codec.Format(), codec)
	return nil
}

// Formats lists the registered format tags in registration order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, r.codecs.Len())
	for pair := r.codecs.Oldest(); pair != nil; pair = pair.Next() {
		formats = append(formats, pair.Key)
	}
	return formats
}

// Marshal encodes a reference. I/O free; the reference's
// materialization state is neither consulted nor carried.
func (r *Registry) Marshal(ref *rasterref.Ref) ([]byte, error) {
	src := ref.Source()
	codec, ok := r.codecs.Get(src.Format())
	if !ok {
		return nil, fmt.Errorf(`no codec registered for source format %q`, src.Format())
	}
	blob, err := codec.Encode(src)
	if err != nil {
		return nil, fmt.Errorf("encode %v source: %w", src.Format(), err)
	}

	buf := []byte{recordVersion}
	buf = binary.AppendUvarint(buf, uint64(len(src.Format())))
	buf = append(buf, src.Format()...)
	buf = binary.AppendUvarint(buf, uint64(len(blob)))
	buf = append(buf, blob...)
	if window, ok := ref.Window(); ok {
		buf = append(buf, 1)
		for _, ord := range window {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(ord))
		}
	} else {
		buf = append(buf, 0)
	}
	return buf, nil
}

// Unmarshal decodes a record produced by Marshal into a fresh,
// unmaterialized reference.
func (r *Registry) Unmarshal(data []byte) (*rasterref.Ref, error) {
	rd := bytes.NewReader(data)

	version, err := rd.ReadByte()
	if err != nil {
		return nil, &DecodeError{Reason: "empty record", Err: err}
	}
	if version != recordVersion {
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported record version %v", version)}
	}

	format, err := readLenPrefixed(rd, "format tag")
	if err != nil {
		return nil, err
	}
	codec, ok := r.codecs.Get(string(format))
	if !ok {
		return nil, &DecodeError{Reason: fmt.Sprintf("no codec registered for source format %q", format)}
	}

	blob, err := readLenPrefixed(rd, "source field")
	if err != nil {
		return nil, err
	}

	flag, err := rd.ReadByte()
	if err != nil {
		return nil, &DecodeError{Reason: "record ends before window flag", Err: err}
	}
	var window *geom.Extent
	switch flag {
	case 0:
	case 1:
		var ext geom.Extent
		for i := range ext {
			var bits [8]byte
			if _, err := io.ReadFull(rd, bits[:]); err != nil {
				return nil, &DecodeError{Reason: "record ends inside window bounds", Err: err}
			}
			ext[i] = math.Float64frombits(binary.LittleEndian.Uint64(bits[:]))
		}
		window = &ext
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid window flag %v", flag)}
	}
	if rd.Len() != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("%v trailing bytes", rd.Len())}
	}

	src, err := codec.Decode(blob)
	if err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("decode %s source", format), Err: err}
	}
	if window == nil {
		return rasterref.New(src), nil
	}
	ref, err := rasterref.NewWindow(src, *window)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid window", Err: err}
	}
	return ref, nil
}

func readLenPrefixed(rd *bytes.Reader, what string) ([]byte, error) {
	n, err := binary.ReadUvarint(rd)
	if err != nil {
		return nil, &DecodeError{Reason: "record ends inside " + what + " length", Err: err}
	}
	if n > maxFieldLen {
		return nil, &DecodeError{Reason: fmt.Sprintf("%v length %v exceeds limit", what, n)}
	}
	field := make([]byte, n)
	if _, err := io.ReadFull(rd, field); err != nil {
		return nil, &DecodeError{Reason: "record ends inside " + what, Err: err}
	}
	return field, nil
}

var defaultRegistry = NewRegistry()

// Register adds a codec to the package-level registry.
func Register(codec SourceCodec) error {
	return defaultRegistry.Register(codec)
}

// Marshal encodes a reference using the package-level registry.
func Marshal(ref *rasterref.Ref) ([]byte, error) {
	return defaultRegistry.Marshal(ref)
}

// Unmarshal decodes a record using the package-level registry.
func Unmarshal(data []byte) (*rasterref.Ref, error) {
	return defaultRegistry.Unmarshal(data)
}
