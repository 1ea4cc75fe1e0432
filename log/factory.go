package log

import (
	"github.com/sirupsen/logrus"
)

// New creates a logrus backed logger. Levels that logrus does not
// recognise fall back to debug
func New(config *Config) Logger {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.DebugLevel
	}

	return NewLogrus(LogrusLoggerProperties{Level: level})
}
