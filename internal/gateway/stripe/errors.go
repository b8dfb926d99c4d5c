package stripe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindInvalidRequest Kind = "invalid_request"
	KindNotFound       Kind = "not_found"
	KindCard           Kind = "card"
	KindRateLimit      Kind = "rate_limit"
	KindAPI            Kind = "api"
	KindTransient      Kind = "transient"
)

// Error is the single carrier for every gateway failure: HTTP errors, transport
// failures, timeouts and undecodable responses.
type Error struct {
	Kind       Kind
	Type       string
	Code       string
	Param      string
	Message    string
	StatusCode int
	RequestID  string
}

var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrCard           = &Error{Kind: KindCard}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrAPI            = &Error{Kind: KindAPI}
	ErrTransient      = &Error{Kind: KindTransient}
)

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return "stripe: " + string(e.Kind) + " error"
}

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a gateway error.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

type errorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Param       string `json:"param"`
		Message     string `json:"message"`
	} `json:"error"`
}

func newResponseError(status int, requestID string, body errorResponse) *Error {
	e := &Error{
		Type:       body.Error.Type,
		Code:       body.Error.Code,
		Param:      body.Error.Param,
		Message:    strings.TrimSpace(body.Error.Message),
		StatusCode: status,
		RequestID:  requestID,
	}
	e.Kind = classify(status, e.Type, e.Code)
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func classify(status int, errType, code string) Kind {
	switch {
	case code == "resource_missing" || status == http.StatusNotFound:
		return KindNotFound
	case errType == "card_error" || status == http.StatusPaymentRequired:
		return KindCard
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= http.StatusInternalServerError:
		return KindAPI
	default:
		return KindInvalidRequest
	}
}

func newTransportError(err error) *Error {
	msg := "Could not connect to the payment provider."
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		msg = "Request to the payment provider timed out."
	}
	if errors.Is(err, context.Canceled) {
		msg = "Request to the payment provider was canceled."
	}
	return &Error{Kind: KindTransient, Message: msg}
}
