// Package codec centralizes payload encoding for the cache.
//
// The manager serializes every value once on Put, both to estimate its
// stored size and to produce the bytes handed to the compression strategy.
// Implementations must be safe for concurrent use.
package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Codec encodes/decodes cached values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSON is the standard-library JSON codec. It is the most portable option
// for typical structs, maps, and slices.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// GoJSON is a JSON codec backed by github.com/goccy/go-json. Wire-compatible
// with JSON but faster on hot paths.
type GoJSON struct{}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns the unique name of the codec ("go-json").
func (GoJSON) Name() string { return "go-json" }

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec the manager uses unless configured otherwise.
var Default Codec = GoJSON{}
