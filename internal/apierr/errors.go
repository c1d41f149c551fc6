// Package apierr is the gateway's error taxonomy: every failure mode the
// pipeline can produce maps to exactly one Kind, and each Kind maps to
// exactly one HTTP status for the inbound response.
package apierr

import "net/http"

type Kind string

const (
	CallerError       Kind = "caller_error"
	AuthError         Kind = "auth_error"
	UpstreamQuota     Kind = "upstream_quota"
	UpstreamProtocol  Kind = "upstream_protocol"
	UpstreamTransport Kind = "upstream_transport"
	UpstreamHTTP      Kind = "upstream_http"
	InternalError     Kind = "internal_error"
)

// Error is the gateway's structured error value. Body preserves the
// upstream's raw response body for UpstreamQuota/UpstreamHTTP, per §7's
// "surfaced... with the upstream body preserved".
type Error struct {
	Kind    Kind
	Message string
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func WithBody(kind Kind, message, body string) *Error {
	return &Error{Kind: kind, Message: message, Body: body}
}

// HTTPStatus maps a Kind to the inbound HTTP status per §7.
func HTTPStatus(kind Kind) int {
	switch kind {
	case CallerError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case UpstreamQuota, UpstreamTransport, UpstreamHTTP:
		return http.StatusBadGateway
	case InternalError, UpstreamProtocol:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
