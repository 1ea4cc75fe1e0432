package rpc

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	ContentTypeJson = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Encoder for payloads
type Encoder interface {
	// ContentType returns the media type of the encoding of v
	ContentType(v interface{}) string

	// Encode encodes the provided payload with its format to the
	// provided writer. In case of failure it is possible a partial
	// write of the serialization to the writer
	Encode(writer io.Writer, v interface{}) error
}

// JsonEncoder is a payload encoder that serializes to JSON
type JsonEncoder struct{}

// ContentType is the implementation of Encoder for JsonEncoder
func (e JsonEncoder) ContentType(v interface{}) string {
	return ContentTypeJson
}

// Encode is the implementation of Encoder for JsonEncoder
func (e JsonEncoder) Encode(writer io.Writer, v interface{}) error {
	return json.NewEncoder(writer).Encode(v)
}

// TextEncoder writes strings, fmt.Stringer values and errors
// as plain text. Any other value is serialized to JSON
type TextEncoder struct{}

func (e TextEncoder) text(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case Error:
		return v.Description, true
	case *Error:
		return v.Description, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// ContentType is the implementation of Encoder for TextEncoder
func (e TextEncoder) ContentType(v interface{}) string {
	if _, ok := e.text(v); ok {
		return ContentTypeText
	}

	return ContentTypeJson
}

// Encode is the implementation of Encoder for TextEncoder
func (e TextEncoder) Encode(writer io.Writer, v interface{}) error {
	if s, ok := e.text(v); ok {
		_, err := io.WriteString(writer, s)
		return err
	}

	return JsonEncoder{}.Encode(writer, v)
}
