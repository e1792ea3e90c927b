package json22plugin

import "github.com/kbukum/gokit-json22/json22"

// Config holds the codec options forwarded verbatim on every request.
// It is copied once by New and must not be mutated afterwards; the parse
// context map in particular is shared by all requests.
type Config struct {
	// SerializeOptions are passed to json22.Marshal for request bodies.
	SerializeOptions json22.StringifyOptions
	// ParseOptions are passed to json22.Unmarshal for response bodies.
	ParseOptions json22.ParseOptions
}
