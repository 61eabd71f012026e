package tilestore

import (
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/rasterref"
	"github.com/pdok/rasterref/gridhelp"
)

// Descriptor declares the geometry and cell encoding of a tile store.
// It is stored as a JSON document inside the store itself and travels
// inside encoded raster reference records.
type Descriptor struct {
	// Name of the raster, normally used for display to a human
	Name string `json:"name,omitempty"`
	// Coordinate Reference System, as authority:code or an OGC CRS URI
	CRS string `validate:"required" json:"crs"`
	// Extent covered by the full pixel grid, as minx, miny, maxx, maxy
	Extent geom.Extent `json:"extent"`
	// Total pixel dimensions of the raster
	Cols int64 `validate:"required,min=1" json:"cols"`
	Rows int64 `validate:"required,min=1" json:"rows"`
	// Cell encoding, e.g. "uint8" or "float32"
	CellType string `validate:"required" json:"cellType"`
	// Number of bands stored. A raster reference only materializes
	// against a single-band store.
	Bands int `default:"1" validate:"min=1" json:"bands,omitempty"`
	// Native block dimensions in pixels
	BlockWidth  int64 `default:"256" validate:"min=1" json:"blockWidth,omitempty"`
	BlockHeight int64 `default:"256" validate:"min=1" json:"blockHeight,omitempty"`
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	err := defaults.Set(d)
	if err != nil {
		return err
	}

	_, err = marshmallow.Unmarshal(data, d, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	return d.Validate()
}

// Validate checks the descriptor the same way decoding a JSON document
// does. It must be called on hand-built descriptors before use.
func (d *Descriptor) Validate() error {
	if err := defaults.Set(d); err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.Extent.XSpan() <= 0 || d.Extent.YSpan() <= 0 {
		return fmt.Errorf("descriptor extent %v is empty", d.Extent)
	}
	if _, _, err := rasterref.CRS(d.CRS).Parts(); err != nil {
		return err
	}
	if _, err := rasterref.ParseCellType(d.CellType); err != nil {
		return err
	}
	return nil
}

func (d *Descriptor) cellType() rasterref.CellType {
	ct, err := rasterref.ParseCellType(d.CellType)
	if err != nil {
		panic(fmt.Errorf("descriptor was not validated: %w", err))
	}
	return ct
}

func (d *Descriptor) grid() gridhelp.Grid {
	return gridhelp.Grid{Extent: d.Extent, Cols: d.Cols, Rows: d.Rows}
}

func (d *Descriptor) blockLayout() rasterref.BlockLayout {
	return rasterref.BlockLayout{Width: d.BlockWidth, Height: d.BlockHeight}
}

func parseDescriptor(doc []byte) (Descriptor, error) {
	var d Descriptor
	err := json.Unmarshal(doc, &d)
	if err != nil {
		return d, fmt.Errorf("parse tile store descriptor: %w", err)
	}
	return d, nil
}
