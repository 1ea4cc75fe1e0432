package rpc

import (
	"github.com/google/uuid"
)

const maxTraceIDLength = 128

// ParseTraceID returns the trace id provided by the client in
// s. If s is empty or not a printable ASCII string of at most
// 128 characters a new random trace id is generated
func ParseTraceID(s string) string {
	if len(s) == 0 || len(s) > maxTraceIDLength {
		return uuid.New().String()
	}

	for _, c := range s {
		if c < 0x21 || c > 0x7e {
			return uuid.New().String()
		}
	}

	return s
}
