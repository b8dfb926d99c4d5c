package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	if s.limiter != nil && !s.limiter.Allow(ctx, c.ClientIP()) {
		s.obsMetrics.RecordRateLimitDenied(ctx, "stripe_webhook")
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(payload) > maxWebhookBody {
		s.log.Warn("webhook body too large", zap.Int64("content_length", c.Request.ContentLength))
		AbortWithError(c, ErrPayloadTooLarge)
		return
	}

	action, err := s.reconciler.Reconcile(ctx, payload, c.Request.Header)
	if action != nil {
		c.Set("event_type", action.EventType)
	}
	if err != nil {
		if webhookStatus(err) == http.StatusOK {
			_ = c.Error(err)
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "message": err.Error()})
			return
		}
		AbortWithError(c, err)
		return
	}

	applied, err := s.applier.ApplyAction(ctx, action)
	if err != nil {
		if errors.Is(err, entrydomain.ErrEntryNotFound) {
			err = paymentdomain.NewWebhookError(paymentdomain.ErrEntryNotFound,
				"Entry for %s id: %s was not found. Webhook cannot be processed.", "transaction", action.TransactionID)
		}
		s.log.Error("webhook action failed",
			zap.String("event_id", action.ID),
			zap.String("action_type", string(action.Type)),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	status := "processed"
	if !applied {
		status = "duplicate"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"action":   action.Type,
		"entry_id": action.EntryID.String(),
	})
}
