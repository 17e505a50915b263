// internal/utils/logger.go

package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// ParseLevel maps a config string to a LogLevel. Unknown values fall
// back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SimpleLogger is a leveled, field-carrying logger writing plain lines to
// a single writer. Field maps are copied on derivation, so a derived
// logger can be used from other goroutines.
type SimpleLogger struct {
	level  LogLevel
	out    io.Writer
	fields map[string]interface{}
	mu     *sync.Mutex
}

// NewLogger creates a logger at info level writing to stdout.
func NewLogger() Logger {
	return NewLoggerWithLevel(InfoLevel)
}

// NewLoggerWithLevel creates a logger with the specified log level.
func NewLoggerWithLevel(level LogLevel) Logger {
	return &SimpleLogger{
		level:  level,
		out:    os.Stdout,
		fields: map[string]interface{}{},
		mu:     &sync.Mutex{},
	}
}

// NewComponentLogger creates a logger carrying a component field, used
// to tell subsystem output apart in combined logs.
func NewComponentLogger(component string) Logger {
	return NewLogger().WithField("component", component)
}

func (l *SimpleLogger) Debug(msg string)                          { l.log(DebugLevel, msg) }
func (l *SimpleLogger) Debugf(format string, args ...interface{}) { l.log(DebugLevel, fmt.Sprintf(format, args...)) }
func (l *SimpleLogger) Info(msg string)                           { l.log(InfoLevel, msg) }
func (l *SimpleLogger) Infof(format string, args ...interface{})  { l.log(InfoLevel, fmt.Sprintf(format, args...)) }
func (l *SimpleLogger) Warn(msg string)                           { l.log(WarnLevel, msg) }
func (l *SimpleLogger) Warnf(format string, args ...interface{})  { l.log(WarnLevel, fmt.Sprintf(format, args...)) }
func (l *SimpleLogger) Error(msg string)                          { l.log(ErrorLevel, msg) }
func (l *SimpleLogger) Errorf(format string, args ...interface{}) { l.log(ErrorLevel, fmt.Sprintf(format, args...)) }

func (l *SimpleLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *SimpleLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &SimpleLogger{
		level:  l.level,
		out:    l.out,
		fields: merged,
		mu:     l.mu,
	}
}

// log formats and outputs a message if it meets the minimum level.
func (l *SimpleLogger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] [%s] %s", timestamp, levelNames[level], msg)
	if len(l.fields) > 0 {
		line += " fields=" + formatFields(l.fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// formatFields renders a field map in stable key order.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
