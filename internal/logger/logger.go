// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps logrus to provide level-based filtering and either JSON or text output on stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents a logging level
type Level = logrus.Level

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel = logrus.DebugLevel
	// InfoLevel is the default logging priority.
	InfoLevel = logrus.InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel = logrus.WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel = logrus.ErrorLevel
)

// Fields represents structured logging fields
type Fields = logrus.Fields

var (
	// Global logger instance
	defaultLogger *logrus.Logger
)

// ParseLevel maps a config level name to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is Init with an explicit output, used by tests.
func InitWithWriter(level string, format string, w io.Writer) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))

	if strings.ToLower(format) == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	defaultLogger = l
}

// WithFields returns an entry carrying structured fields.
// Before Init it logs through a discarding logger.
func WithFields(fields Fields) *logrus.Entry {
	if defaultLogger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l.WithFields(fields)
	}
	return defaultLogger.WithFields(fields)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debugf(format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Infof(format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warnf(format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf(format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf("[FATAL] "+format, args...)
	} else {
		fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	}
	os.Exit(1)
}
