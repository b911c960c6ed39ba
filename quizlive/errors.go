package quizlive

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// Protocol errors (from server error envelopes)
	ErrorUnknown ErrorCode = iota
	ErrorWrongQuestion
	ErrorAlreadyAnswered
	ErrorSessionNotFound
	ErrorSessionNotJoinable
	ErrorSessionFull
	ErrorInternalServer

	// Client-side errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorSerialization
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorWrongQuestion:
		return "wrong_question"
	case ErrorAlreadyAnswered:
		return "already_answered"
	case ErrorSessionNotFound:
		return "session_not_found"
	case ErrorSessionNotJoinable:
		return "session_not_joinable"
	case ErrorSessionFull:
		return "session_full"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSerialization:
		return "serialization_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a protocol error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "wrong_question":
		return ErrorWrongQuestion
	case "already_answered":
		return ErrorAlreadyAnswered
	case "session_not_found":
		return ErrorSessionNotFound
	case "session_not_joinable":
		return ErrorSessionNotJoinable
	case "session_full":
		return ErrorSessionFull
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// QuizError is a structured error with code and context.
type QuizError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *QuizError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *QuizError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *QuizError) Is(target error) bool {
	t, ok := target.(*QuizError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new QuizError with the given code and message.
func NewError(code ErrorCode, message string) *QuizError {
	return &QuizError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a QuizError.
func WrapError(code ErrorCode, message string, err error) *QuizError {
	return &QuizError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// FromProtocolError converts an error envelope payload to QuizError.
func FromProtocolError(p ErrorPayload) *QuizError {
	return &QuizError{
		Code:    ParseErrorCode(p.Code),
		Message: p.Message,
	}
}

// IsProtocolError checks if an error originated from a server error
// envelope.
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var qe *QuizError
	if !errors.As(err, &qe) {
		return false
	}
	return qe.Code >= ErrorWrongQuestion && qe.Code <= ErrorInternalServer
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var qe *QuizError
	if !errors.As(err, &qe) {
		return false
	}
	return qe.Code == ErrorConnection || qe.Code == ErrorDisconnected || qe.Code == ErrorTimeout
}
