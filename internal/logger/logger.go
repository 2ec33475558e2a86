// Package logger configures the process-wide logrus logger and hands out
// component-scoped entries.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

var rootLogger = logrus.StandardLogger()

// Configure sets level and format ("text" or "json") on the root logger.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	root().SetLevel(lvl)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		root().SetFormatter(&logrus.JSONFormatter{})
	default:
		root().SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	root().SetOutput(os.Stderr)
	return nil
}

// Root returns the shared logger.
func Root() *logrus.Logger {
	return root()
}

// Named returns an entry tagged with the component field.
func Named(component string) *logrus.Entry {
	entry := logrus.NewEntry(root())
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func root() *logrus.Logger {
	if rootLogger == nil {
		rootLogger = logrus.StandardLogger()
	}
	return rootLogger
}
