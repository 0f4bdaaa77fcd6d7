// Package logging owns the process-wide logrus logger. Pipeline stages take a
// named entry at package init and tag every record with their component, so
// one Configure call at startup controls the whole tree.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.InfoLevel
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true}
	return l
}

// Root returns the process logger.
func Root() *logrus.Logger {
	return root
}

// Named returns an entry tagged with the given component name.
func Named(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// Configure sets the level ("debug", "info", "warn", "error") and the output
// format ("text" or "json") of the root logger.
func Configure(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var formatter logrus.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("logging: invalid format %q, expected text or json", format)
	}

	root.SetLevel(lvl)
	root.SetFormatter(formatter)
	if w != nil {
		root.SetOutput(w)
	}
	return nil
}

// ParseLevel accepts the four levels exposed on the command line.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("logging: invalid level %q, expected debug, info, warn, or error", level)
}
