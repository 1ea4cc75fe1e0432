package rw

import (
	"bytes"
	"errors"
	"io"
)

// ErrLimitExceeded is returned when a source holds more bytes
// than the configured limit
var ErrLimitExceeded = errors.New("read limit exceeded")

// ReadLimitProps configures a LimitReader
type ReadLimitProps struct {
	// FailOnExceed makes reads fail with ErrLimitExceeded once the
	// source goes over Limit instead of silently truncating it
	FailOnExceed bool

	// Limit is the maximum number of bytes read from the source
	Limit int64
}

// LimitReader reads at most Limit bytes from its source. HTTP bodies
// for requests and artifacts go through it
type LimitReader struct {
	props  ReadLimitProps
	source io.Reader
	read   int64
}

// NewLimitReader wraps reader so that no more than props.Limit bytes
// are consumed from it
func NewLimitReader(reader io.Reader, props ReadLimitProps) *LimitReader {
	max := props.Limit
	if props.FailOnExceed {
		// one extra byte tells a source of exactly Limit bytes apart
		// from a larger one
		max++
	}

	return &LimitReader{props: props, source: io.LimitReader(reader, max)}
}

func (r *LimitReader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	r.read += int64(n)
	if r.props.FailOnExceed && r.read > r.props.Limit {
		return 0, ErrLimitExceeded
	}

	return n, err
}

// ReadAllWithLimit drains r through a LimitReader
func ReadAllWithLimit(r io.Reader, props ReadLimitProps) ([]byte, error) {
	if r == nil {
		return nil, errors.New("cannot read from a nil reader")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(NewLimitReader(r, props)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
