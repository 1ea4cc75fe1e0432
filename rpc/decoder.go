package rpc

import (
	"encoding/json"
	"io"

	stderr "github.com/pkg/errors"

	"github.com/oasislabs/quorum-functions/rw"
)

// Decoder for payloads
type Decoder interface {
	// Decode decodes the provided payload with its format from the
	// provided reader. In case of failure it is possible a partial
	// read has occurred
	Decode(r io.Reader, v interface{}) error
}

// JsonDecoder is a payload decoder that deserializes JSON. Numbers
// are kept as json.Number so that integers wider than 53 bits are
// not truncated
type JsonDecoder struct{}

// Decode is the implementation of Decoder for JsonDecoder
func (e JsonDecoder) Decode(reader io.Reader, v interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	return stderr.Wrap(decoder.Decode(v), "failed to decode json")
}

// DecodeWithLimit decodes the payload in the reader making sure not
// to exceed the limit provided
func (e JsonDecoder) DecodeWithLimit(reader io.Reader, v interface{}, props rw.ReadLimitProps) error {
	return e.Decode(rw.NewLimitReader(reader, props), v)
}
