// Package lookup defines the error taxonomy shared by gateways, the enrichment
// orchestrator and the report formatter.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/lookup-bot/internal/resilience"
)

// Kind classifies a lookup failure.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindMissingCredential     Kind = "missing_credential"
	KindNetwork               Kind = "network"
	KindProtocol              Kind = "protocol"
	KindTimeout               Kind = "timeout"
	KindInvalidNumber         Kind = "invalid_number"
	KindInvalidOrPrivateRange Kind = "invalid_or_private_range"
	KindAPIError              Kind = "api_error"
)

// Error is the only error type that crosses a gateway or orchestrator
// boundary.
type Error struct {
	Kind   Kind
	Source string
	Detail string
	// Raw holds the upstream payload for KindAPIError.
	Raw []byte
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without a cause.
func New(kind Kind, source, detail string) *Error {
	return &Error{Kind: kind, Source: source, Detail: detail}
}

// Newf is New with a formatted detail.
func Newf(kind Kind, source, format string, args ...any) *Error {
	return New(kind, source, fmt.Sprintf(format, args...))
}

// APIError wraps an upstream payload that was neither valid nor invalid.
func APIError(source string, raw []byte) *Error {
	return &Error{Kind: KindAPIError, Source: source, Raw: raw}
}

// FromTransport converts an HTTP client failure into a Timeout or Network
// error. Errors that are already *Error pass through unchanged.
func FromTransport(source string, err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if errors.Is(err, context.DeadlineExceeded) || resilience.IsTimeout(err) {
		return &Error{Kind: KindTimeout, Source: source, Err: err}
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &Error{Kind: KindNetwork, Source: source, Detail: "circuit open", Err: err}
	}
	return &Error{Kind: KindNetwork, Source: source, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsSourceError reports whether k describes a failure to reach or understand
// an upstream, as opposed to the upstream rejecting the identifier.
func IsSourceError(k Kind) bool {
	switch k {
	case KindNetwork, KindProtocol, KindTimeout, KindMissingCredential:
		return true
	default:
		return false
	}
}
