package tilestore

import (
	"encoding/json"
	"fmt"

	"github.com/pdok/rasterref"
)

// Codec is the records.SourceCodec for tile stores. The encoded form
// carries the store's path and full descriptor, so decoding reconstructs
// a handle without opening the database.
type Codec struct{}

type encodedStore struct {
	Path       string     `json:"path"`
	Descriptor Descriptor `json:"descriptor"`
}

func (Codec) Format() string {
	return Format
}

func (Codec) Encode(src rasterref.Source) ([]byte, error) {
	store, ok := src.(*Store)
	if !ok {
		return nil, fmt.Errorf("source is a %T, not a tile store", src)
	}
	return json.Marshal(encodedStore{Path: store.path, Descriptor: store.desc})
}

func (Codec) Decode(blob []byte) (rasterref.Source, error) {
	var enc encodedStore
	if err := json.Unmarshal(blob, &enc); err != nil {
		return nil, err
	}
	if enc.Path == "" {
		return nil, fmt.Errorf("encoded tile store has no path")
	}
	return New(enc.Path, enc.Descriptor)
}
