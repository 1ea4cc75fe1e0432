package log

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusLoggerProperties are the properties used to
// build a logrus backed Logger
type LogrusLoggerProperties struct {
	Formatter logrus.Formatter
	Level     logrus.Level
	Output    io.Writer
}

// LogrusLogger implements Logger on top of a logrus entry, so that
// the fields bound with ForClass and With are carried along
type LogrusLogger struct {
	root  *logrus.Logger
	entry *logrus.Entry
}

// NewLogrus creates a new Logger. By default entries are written
// to stdout in JSON format
func NewLogrus(properties LogrusLoggerProperties) Logger {
	log := logrus.New()
	if properties.Formatter == nil {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(properties.Formatter)
	}

	log.SetLevel(properties.Level)

	if properties.Output == nil {
		log.SetOutput(os.Stdout)
	} else {
		log.SetOutput(properties.Output)
	}

	return LogrusLogger{root: log, entry: logrus.NewEntry(log)}
}

func (l LogrusLogger) ForClass(pkg string, class string) Logger {
	return LogrusLogger{
		root: l.root,
		entry: l.root.WithFields(logrus.Fields{
			"pkg":   pkg,
			"class": class,
		}),
	}
}

func (l LogrusLogger) With(loggables ...Loggable) Logger {
	fields := LogrusFields{logrus.Fields{}}
	for _, loggable := range loggables {
		loggable.Log(&fields)
	}

	return LogrusLogger{root: l.root, entry: l.entry.WithFields(fields.fields)}
}

func (l LogrusLogger) Debug(ctx context.Context, msg string, loggables ...Loggable) {
	l.entry.WithFields(logrusMakeFields(ctx, loggables...)).Debug(msg)
}

func (l LogrusLogger) Info(ctx context.Context, msg string, loggables ...Loggable) {
	l.entry.WithFields(logrusMakeFields(ctx, loggables...)).Info(msg)
}

func (l LogrusLogger) Warn(ctx context.Context, msg string, loggables ...Loggable) {
	l.entry.WithFields(logrusMakeFields(ctx, loggables...)).Warn(msg)
}

func (l LogrusLogger) Error(ctx context.Context, msg string, loggables ...Loggable) {
	l.entry.WithFields(logrusMakeFields(ctx, loggables...)).Error(msg)
}

func (l LogrusLogger) Fatal(ctx context.Context, msg string, loggables ...Loggable) {
	l.entry.WithFields(logrusMakeFields(ctx, loggables...)).Fatal(msg)
}

func logrusMakeFields(ctx context.Context, loggables ...Loggable) logrus.Fields {
	fields := LogrusFields{logrus.Fields{}}
	for _, loggable := range loggables {
		loggable.Log(&fields)
	}

	if traceID := GetTraceID(ctx); len(traceID) > 0 {
		fields.Add("traceId", traceID)
	}

	return fields.fields
}

// LogrusFields adapts logrus.Fields to Fields
type LogrusFields struct {
	fields logrus.Fields
}

func (f *LogrusFields) Add(key string, value interface{}) {
	f.fields[key] = value
}
