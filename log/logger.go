package log

import "context"

// Fields collects the key value pairs of a log entry
type Fields interface {
	Add(key string, value interface{})
}

// Loggable is implemented by any value that knows how to
// describe itself in a log entry
type Loggable interface {
	Log(fields Fields)
}

// MapFields is the simplest Loggable
type MapFields map[string]interface{}

func (m MapFields) Log(fields Fields) {
	for key, value := range m {
		fields.Add(key, value)
	}
}

// Logger is the logging interface used across the service. The
// context is used to extract request scoped values such as the
// trace id
type Logger interface {
	ForClass(pkg string, class string) Logger
	With(loggables ...Loggable) Logger
	Debug(ctx context.Context, msg string, loggables ...Loggable)
	Info(ctx context.Context, msg string, loggables ...Loggable)
	Warn(ctx context.Context, msg string, loggables ...Loggable)
	Error(ctx context.Context, msg string, loggables ...Loggable)
	Fatal(ctx context.Context, msg string, loggables ...Loggable)
}
