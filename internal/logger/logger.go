package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var _log = logrus.New()

// Init configures the global logger. Debug mode switches to a human-readable
// text formatter; otherwise entries are emitted as JSON.
func Init(debug bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	_log.SetOutput(out)
	if debug {
		_log.SetLevel(logrus.DebugLevel)
		_log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	_log.SetLevel(logrus.InfoLevel)
	_log.SetFormatter(&logrus.JSONFormatter{})
}

// Log returns a standard logger entry to use across packages.
func Log() *logrus.Entry {
	return logrus.NewEntry(_log)
}

// WithFields returns a logger entry with provided fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}

// Component returns an entry tagged with the emitting component.
func Component(name string) *logrus.Entry {
	return Log().WithField("component", name)
}
