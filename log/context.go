package log

import (
	"context"
)

type ContextKey string

const (
	ContextKeyTraceID ContextKey = "logContextKeyTraceID"
)

// PutTraceID returns a copy of ctx carrying the trace id of the
// request being served
func PutTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, traceID)
}

// GetTraceID returns the trace id stored in ctx or an empty
// string if none is found
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(ContextKeyTraceID).(string)
	if !ok {
		return ""
	}

	return traceID
}
