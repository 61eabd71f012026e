package rasterref

import (
	"fmt"

	"github.com/go-spatial/geom"
)

// PreconditionError means a reference was materialized against a source
// that violates the reference's contract, e.g. a band count other than 1.
// It is fatal for the reference and never retried.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition violated: " + e.Reason
}

// ReadError means the source failed to produce pixel data for the
// requested window. It is fatal for the reference; whether the whole
// unit of work is retried is up to the caller.
type ReadError struct {
	URI    string
	Window geom.Extent
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %v window %v: %v", e.URI, e.Window, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
