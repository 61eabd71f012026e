// Package rasterref provides lazy, spatially windowed references to large
// single-band rasters. A Ref addresses a (source, window) pair that can be
// passed around and serialized freely; the actual pixel read is deferred
// until the reference is materialized, and happens at most once per instance.
package rasterref

import (
	"fmt"
	"regexp"
	"strconv"
)

// CRS identifies a coordinate reference system, either as an
// authority:code pair (e.g. "EPSG:28992") or as an OGC CRS URI cq URN.
type CRS string

var (
	crsRegexURL  = regexp.MustCompile("https?://.+/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$")
	crsRegexURN  = regexp.MustCompile("^urn:ogc:def:crs:(?P<authority>[^:]+)::(?P<code>[^:]+)$")
	crsRegexPair = regexp.MustCompile("^(?P<authority>[A-Za-z0-9_.-]+):(?P<code>[^:]+)$")
)

// Parts splits the CRS into its authority name and code.
func (c CRS) Parts() (authorityName, authorityCode string, err error) {
	s := string(c)
	parts := crsRegexURL.FindStringSubmatch(s)
	if parts == nil {
		parts = crsRegexURN.FindStringSubmatch(s)
	}
	if parts == nil {
		parts = crsRegexPair.FindStringSubmatch(s)
	}
	if parts == nil {
		return "", "", fmt.Errorf(`could not parse crs "%v"`, s)
	}
	return parts[1], parts[2], nil
}

// SRID returns the numeric authority code.
func (c CRS) SRID() (uint, error) {
	_, code, err := c.Parts()
	if err != nil {
		return 0, err
	}
	srid, err := strconv.ParseUint(code, 10, 64)
	if err != nil {
		return 0, fmt.Errorf(`could not parse crs authority code "%w"`, err)
	}
	return uint(srid), nil
}
