package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClientToken      = errors.New("client_token_invalid")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrTestWebhook      = errors.New("test_webhook_succeeded")
	ErrLivemodeMismatch = errors.New("livemode_mismatch")
	ErrEventUnavailable = errors.New("event_unavailable")
	ErrInvalidWebhook   = errors.New("invalid_webhook")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrEntryNotFound    = errors.New("entry_not_found")
)

// WebhookError carries the response message for a reconcile outcome.
type WebhookError struct {
	Err     error
	Message string
}

func NewWebhookError(kind error, format string, args ...any) *WebhookError {
	return &WebhookError{Err: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *WebhookError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *WebhookError) Unwrap() error { return e.Err }
