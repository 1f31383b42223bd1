// Package gatewayerr defines the typed error kinds that flow from the
// resolver and upstream clients to the HTTP dispatch layer.
package gatewayerr

import (
	"fmt"
	"net/http"

	"go.uber.org/zap/zapcore"
)

// Kind classifies a gateway error for status-code mapping and logging.
type Kind int

const (
	// NotFound covers parse failures, fast-not-exist hits, atpath 404s,
	// and missing keys.
	NotFound Kind = iota
	// BadRequest covers an undecodable Depth header or a malformed
	// PROPFIND body.
	BadRequest
	// FiniteDepthRequired covers a PROPFIND with Depth: infinity.
	FiniteDepthRequired
	// MethodNotAllowed covers write verbs, LOCK, and other
	// unsupported methods.
	MethodNotAllowed
	// UpstreamUnavailable covers archive/S3/manifest timeouts and 5xx
	// responses that survived retries.
	UpstreamUnavailable
	// UpstreamMalformed covers JSON/XML parse failures, missing
	// required fields, and invalid S3 URLs found in contentUrl.
	UpstreamMalformed
	// Internal covers bugs and panics caught by the HTTP framework.
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case BadRequest:
		return "BadRequest"
	case FiniteDepthRequired:
		return "FiniteDepthRequired"
	case MethodNotAllowed:
		return "MethodNotAllowed"
	case UpstreamUnavailable:
		return "UpstreamUnavailable"
	case UpstreamMalformed:
		return "UpstreamMalformed"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// statusCodes maps each Kind to its outbound HTTP status.
var statusCodes = map[Kind]int{
	NotFound:            http.StatusNotFound,
	BadRequest:          http.StatusBadRequest,
	FiniteDepthRequired: http.StatusForbidden,
	MethodNotAllowed:    http.StatusMethodNotAllowed,
	UpstreamUnavailable: http.StatusBadGateway,
	UpstreamMalformed:   http.StatusBadGateway,
	Internal:            http.StatusInternalServerError,
}

// Error is a typed gateway error carrying the operation that failed and
// the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status to send for this error.
func (e *Error) StatusCode() int {
	if code, ok := statusCodes[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// LogLevel returns the level an error of this kind should be logged at.
// 4xx caused by the client log at info; everything else logs at error.
func (e *Error) LogLevel() zapcore.Level {
	switch e.Kind {
	case NotFound, BadRequest, FiniteDepthRequired, MethodNotAllowed:
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}

// New constructs a gateway error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	ge, ok := err.(*Error)
	return ok && ge.Kind == kind
}

// StatusCode extracts the HTTP status for any error, defaulting to 500
// for errors that are not *Error.
func StatusCode(err error) int {
	if ge, ok := err.(*Error); ok {
		return ge.StatusCode()
	}
	return http.StatusInternalServerError
}
