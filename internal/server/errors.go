package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	submissiondomain "github.com/smallbiznis/formpay/internal/submission/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrPayloadTooLarge    = errors.New("payload_too_large")
	ErrInternal           = errors.New("internal_error")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if fieldErrs := asFieldErrors(err); len(fieldErrs) > 0 {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fieldErrs,
		}
	}

	if isWebhookError(err) {
		return webhookStatus(err), errorPayload{
			Type:    webhookErrorType(err),
			Message: err.Error(),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(err, code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, feeddomain.ErrNoActiveFeed):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "no_active_feed",
			Message: "form has no active payment feed",
		}
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "request body too large",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, stripe.ErrTransient):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_unavailable",
			Message: "payment gateway unavailable",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// webhookStatus maps a reconcile outcome to the response code Stripe sees.
// Anything below 300 stops Stripe from retrying the delivery.
func webhookStatus(err error) int {
	switch {
	case errors.Is(err, paymentdomain.ErrEventIgnored),
		errors.Is(err, paymentdomain.ErrTestWebhook),
		errors.Is(err, paymentdomain.ErrLivemodeMismatch):
		return http.StatusOK
	case errors.Is(err, paymentdomain.ErrInvalidWebhook),
		errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, paymentdomain.ErrEntryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func isWebhookError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrEventIgnored),
		errors.Is(err, paymentdomain.ErrTestWebhook),
		errors.Is(err, paymentdomain.ErrLivemodeMismatch),
		errors.Is(err, paymentdomain.ErrInvalidWebhook),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrEntryNotFound),
		errors.Is(err, paymentdomain.ErrEventUnavailable):
		return true
	default:
		return false
	}
}

func webhookErrorType(err error) string {
	for _, kind := range []error{
		paymentdomain.ErrEventIgnored,
		paymentdomain.ErrTestWebhook,
		paymentdomain.ErrLivemodeMismatch,
		paymentdomain.ErrInvalidWebhook,
		paymentdomain.ErrInvalidSignature,
		paymentdomain.ErrEntryNotFound,
		paymentdomain.ErrEventUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "webhook_error"
}

// classifyErrorForLog returns the error type and code recorded by the request logger.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	switch {
	case status >= http.StatusInternalServerError:
		return "server", code
	case status == http.StatusOK:
		return "ignored", code
	default:
		return "client", code
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func asFieldErrors(err error) []ValidationError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	out := make([]ValidationError, 0, len(vErrs))
	for _, fe := range vErrs {
		out = append(out, ValidationError{
			Field:   toSnake(fe.Field()),
			Code:    fe.Tag(),
			Message: "invalid value",
		})
	}
	return out
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, entrydomain.ErrInvalidForm),
		errors.Is(err, entrydomain.ErrInvalidID),
		errors.Is(err, feeddomain.ErrInvalidID),
		errors.Is(err, submissiondomain.ErrInvalidInput),
		errors.Is(err, submissiondomain.ErrInvalidAmount):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, entrydomain.ErrFormNotFound),
		errors.Is(err, entrydomain.ErrEntryNotFound),
		errors.Is(err, feeddomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	for _, kind := range []error{
		ErrInvalidRequest,
		entrydomain.ErrInvalidForm,
		entrydomain.ErrInvalidID,
		feeddomain.ErrInvalidID,
		submissiondomain.ErrInvalidInput,
		submissiondomain.ErrInvalidAmount,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(err error, code string) string {
	if code == "invalid_request" {
		return "invalid request"
	}
	// Wrapped errors carry the detail after the sentinel prefix.
	if _, detail, ok := strings.Cut(err.Error(), ": "); ok && detail != "" {
		return detail
	}
	return "invalid value"
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
