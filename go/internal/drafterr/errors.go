package drafterr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the draft domain error with structured context.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human readable message
	Metadata map[string]string // Context such as player_id or expected_seat
	Cause    error             // Wrapped underlying error
}

// Sentinels for errors.Is; matching is by code.
var (
	ErrConfiguration      = &Error{Code: CodeConfiguration}
	ErrInvalidState       = &Error{Code: CodeInvalidState}
	ErrNotYourTurn        = &Error{Code: CodeNotYourTurn}
	ErrPlayerAlreadyTaken = &Error{Code: CodePlayerAlreadyTaken}
	ErrIneligiblePlayer   = &Error{Code: CodeIneligiblePlayer}
	ErrStaleTimer         = &Error{Code: CodeStaleTimer}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
	ErrConflict           = &Error{Code: CodeConflict}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Metadata[k])
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, " "))
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates a domain error carrying context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// MetadataOf returns the metadata of the first domain error in err's chain.
func MetadataOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Metadata
	}
	return nil
}
