// Package errortypes provides error types and handling for the recap service.
package errortypes

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/lorehaven/recap/internal/logger"
)

// ErrorType represents the type of error that occurred
type ErrorType string

// Error types
const (
	// ErrorTypeConfiguration covers empty or malformed provider configuration
	// (missing key, short key, missing URL).
	ErrorTypeConfiguration ErrorType = "configuration"

	// ErrorTypeAuthentication covers HTTP 401/403 responses. Never retried.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeTransient covers overload, rate-limit, gateway-timeout and
	// connection failures that are worth retrying.
	ErrorTypeTransient ErrorType = "transient"

	// ErrorTypeMalformed covers provider responses missing the expected
	// field or containing an unterminated string.
	ErrorTypeMalformed ErrorType = "malformed"

	// ErrorTypeDatabase covers summary archive failures.
	ErrorTypeDatabase ErrorType = "database"

	// ErrorTypeInternal covers everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents an application error with context
type AppError struct {
	Err       error
	Type      ErrorType
	Message   string
	StackInfo string
	Fields    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap unwraps the error to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields adds multiple fields to the error for additional context
func (e *AppError) WithFields(fields map[string]interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// captureStack captures the stack trace at the call site
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		// Skip testing and standard library frames
		if !strings.Contains(frame.File, "testing/") && !strings.Contains(frame.File, "/go/src/") {
			fmt.Fprintf(&builder, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return builder.String()
}

// newAppError creates a new AppError with the given type, underlying error, and message
func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}

	return &AppError{
		Err:       err,
		Type:      errType,
		Message:   message,
		StackInfo: captureStack(),
		Fields:    make(map[string]interface{}),
	}
}

// ConfigurationError creates a new configuration error
func ConfigurationError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfiguration, err, message)
}

// AuthenticationError creates a new authentication error
func AuthenticationError(err error, message string) *AppError {
	return newAppError(ErrorTypeAuthentication, err, message)
}

// TransientError creates a new transient network error
func TransientError(err error, message string) *AppError {
	return newAppError(ErrorTypeTransient, err, message)
}

// MalformedResponseError creates a new malformed response error
func MalformedResponseError(err error, message string) *AppError {
	return newAppError(ErrorTypeMalformed, err, message)
}

// DatabaseError creates a new database error
func DatabaseError(err error, message string) *AppError {
	return newAppError(ErrorTypeDatabase, err, message)
}

// InternalError creates a new internal error
func InternalError(err error, message string) *AppError {
	return newAppError(ErrorTypeInternal, err, message)
}

// LogError logs an AppError using the provided logger or the package default.
// It logs the error message, type, and any associated fields.
func LogError(log *logger.Logger, err error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		fields := map[string]interface{}{
			"error_type":     string(appErr.Type),
			"original_error": appErr.Err.Error(),
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
		log.WithFields(fields).Error(appErr.Message)
	} else {
		log.Error("Unstructured error: %v", err)
	}
}

// IsType checks whether an error carries the given ErrorType
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return IsType(err, ErrorTypeAuthentication)
}

// IsTransient checks if an error is a transient network error
func IsTransient(err error) bool {
	return IsType(err, ErrorTypeTransient)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return IsType(err, ErrorTypeConfiguration)
}

// IsMalformed checks if an error is a malformed response error
func IsMalformed(err error) bool {
	return IsType(err, ErrorTypeMalformed)
}
