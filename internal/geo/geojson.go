// Package geo converts business locations between GeoJSON and the WKB stored in Postgres.
package geo

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var ErrNotPoint = errors.New("geometry must be a Point")

// PointToWKB parses a GeoJSON Point and returns little-endian WKB.
// Empty input yields nil.
func PointToWKB(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, ErrNotPoint
	}
	if lng, lat := p.X(), p.Y(); lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, errors.New("coordinates out of range")
	}
	return wkb.Marshal(p, binary.LittleEndian)
}

// WKBToGeoJSON converts stored WKB back into GeoJSON; empty input yields nil.
func WKBToGeoJSON(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	out, err := gjson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}
