// Package logger provides the leveled, structured logger used across the
// recap service. Loggers are cheap to derive: WithField, WithFields and
// WithContext return children that share the parent's output sink.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

// Log level constants
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
	DISABLED
)

// LogFormat defines how log messages are formatted
type LogFormat int

// Log format constants
const (
	TEXT LogFormat = iota
	JSON
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	case DISABLED:
		return "DISABLED"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// sink is the shared output target of a logger and all its descendants.
// Level and format changes through any of them take effect for the whole
// family.
type sink struct {
	out    io.Writer
	level  LogLevel
	format LogFormat
	mu     sync.Mutex
}

// Logger represents a structured logger
type Logger struct {
	sink        *sink
	fields      map[string]interface{}
	contextPath []string
}

// Config holds configuration options for the logger
type Config struct {
	Level       LogLevel
	Format      LogFormat
	Output      io.Writer
	DefaultTags map[string]interface{}
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:       INFO,
		Format:      TEXT,
		Output:      os.Stderr,
		DefaultTags: map[string]interface{}{"service": "recap"},
	}
}

// New creates a new logger with the given configuration
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	fields := make(map[string]interface{}, len(config.DefaultTags))
	for k, v := range config.DefaultTags {
		fields[k] = v
	}

	return &Logger{
		sink: &sink{
			out:    out,
			level:  config.Level,
			format: config.Format,
		},
		fields: fields,
	}
}

// SetLevel sets the minimum log level for this logger and its derivatives
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetFormat sets the output format for this logger and its derivatives
func (l *Logger) SetFormat(format LogFormat) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
}

// WithField returns a new logger with the field added to its context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with multiple fields added to its context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &Logger{
		sink:        l.sink,
		fields:      merged,
		contextPath: l.contextPath,
	}
}

// WithContext returns a new logger with names appended to its context path
func (l *Logger) WithContext(contexts ...string) *Logger {
	path := make([]string, 0, len(l.contextPath)+len(contexts))
	path = append(path, l.contextPath...)
	path = append(path, contexts...)

	return &Logger{
		sink:        l.sink,
		fields:      l.fields,
		contextPath: path,
	}
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args...)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args...)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args...)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args...)
}

// Fatal logs a message at FATAL level and then exits with status code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log(FATAL, msg, args...)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, msg string, args ...interface{}) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)

	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	if l.sink.format == JSON {
		l.writeJSON(timestamp, level, msg, caller)
	} else {
		l.writeText(timestamp, level, msg, caller)
	}
}

// writeText renders a line like:
// 2026-08-31T10:00:00Z [INFO] [engine.transport] attempt failed (engine.go:42) key=value
func (l *Logger) writeText(timestamp string, level LogLevel, msg, caller string) {
	var sb strings.Builder
	sb.WriteString(timestamp)
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] ")

	if len(l.contextPath) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(l.contextPath, "."))
		sb.WriteString("] ")
	}

	sb.WriteString(msg)
	sb.WriteString(" (")
	sb.WriteString(caller)
	sb.WriteString(")")

	for _, k := range sortedKeys(l.fields) {
		fmt.Fprintf(&sb, " %s=%v", k, l.fields[k])
	}

	sb.WriteString("\n")
	io.WriteString(l.sink.out, sb.String())
}

func (l *Logger) writeJSON(timestamp string, level LogLevel, msg, caller string) {
	record := make(map[string]interface{}, len(l.fields)+5)
	for k, v := range l.fields {
		record[k] = v
	}
	record["timestamp"] = timestamp
	record["level"] = level.String()
	record["message"] = msg
	record["caller"] = caller
	if len(l.contextPath) > 0 {
		record["context"] = strings.Join(l.contextPath, ".")
	}

	line, err := json.Marshal(record)
	if err != nil {
		fmt.Fprintf(l.sink.out, `{"level":"ERROR","message":"failed to encode log record: %v"}`+"\n", err)
		return
	}
	l.sink.out.Write(append(line, '\n'))
}

func sortedKeys(m map[string]interface{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseLevel converts a string level to a LogLevel
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	case "DISABLED":
		return DISABLED
	default:
		return INFO
	}
}

// Global default logger
var defaultLogger = New(DefaultConfig())

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// GetLogger returns a logger named after a component
func GetLogger(name string) *Logger {
	return defaultLogger.WithField("name", name)
}

// Debug logs to the default logger at DEBUG level
func Debug(msg string, args ...interface{}) {
	defaultLogger.Debug(msg, args...)
}

// Info logs to the default logger at INFO level
func Info(msg string, args ...interface{}) {
	defaultLogger.Info(msg, args...)
}

// Warn logs to the default logger at WARN level
func Warn(msg string, args ...interface{}) {
	defaultLogger.Warn(msg, args...)
}

// Error logs to the default logger at ERROR level
func Error(msg string, args ...interface{}) {
	defaultLogger.Error(msg, args...)
}

// Fatal logs to the default logger at FATAL level and then exits
func Fatal(msg string, args ...interface{}) {
	defaultLogger.Fatal(msg, args...)
}
