package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"go.uber.org/zap"
)

const checkoutExpiredNote = "Checkout session expired before payment was completed."

// ExpireCheckoutsJob fails hosted checkout entries still in Processing after
// the checkout expiry.
func (s *Scheduler) ExpireCheckoutsJob(ctx context.Context) error {
	now := s.clock.Now().UTC()
	cutoff := now.Add(-s.cfg.CheckoutExpiry)
	run := jobRunFromContext(ctx)

	var ids []snowflake.ID
	err := s.db.WithContext(ctx).Raw(
		`SELECT e.id
		 FROM entries e
		 WHERE e.payment_status = ?
		   AND e.created_at <= ?
		   AND EXISTS (
		     SELECT 1 FROM entry_meta m
		     WHERE m.entry_id = e.id AND m.meta_key = ?
		   )
		 ORDER BY e.created_at ASC
		 LIMIT ?`,
		entrydomain.PaymentStatusProcessing,
		cutoff,
		entrydomain.MetaCheckoutURL,
		s.cfg.BatchSize,
	).Scan(&ids).Error
	if err != nil {
		return err
	}

	var jobErr error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Join(jobErr, err)
		}
		expired, err := s.expireCheckout(ctx, id, now)
		if err != nil {
			s.logJobError(ctx, "checkout expiry failed", err, zap.String("entry_id", id.String()))
			jobErr = errors.Join(jobErr, err)
			continue
		}
		if expired {
			run.AddProcessed(1)
		}
	}
	return jobErr
}

func (s *Scheduler) expireCheckout(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	// Only Processing rows move; a completed payment is never overwritten.
	res := s.db.WithContext(ctx).Exec(
		`UPDATE entries SET payment_status = ?, updated_at = ?
		 WHERE id = ? AND payment_status = ?`,
		entrydomain.PaymentStatusFailed,
		now,
		id,
		entrydomain.PaymentStatusProcessing,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := s.entries.AddNote(ctx, id, entrydomain.NoteTypeError, checkoutExpiredNote); err != nil {
		return true, fmt.Errorf("add note: %w", err)
	}
	entry, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return true, err
	}
	s.entries.Notify(ctx, entry, entrydomain.EventFailPayment)
	s.logger(ctx).Info("checkout expired", zap.String("entry_id", id.String()))
	return true, nil
}

// PurgeWebhookEventsJob drops processed webhook event records older than the
// retention window. The window must outlast Stripe's three day retry period.
func (s *Scheduler) PurgeWebhookEventsJob(ctx context.Context) error {
	cutoff := s.clock.Now().UTC().Add(-s.cfg.WebhookRetention)

	res := s.db.WithContext(ctx).Exec(
		`DELETE FROM webhook_events
		 WHERE status = ? AND processed_at IS NOT NULL AND processed_at < ?`,
		entrydomain.WebhookEventProcessed,
		cutoff,
	)
	if res.Error != nil {
		return res.Error
	}
	jobRunFromContext(ctx).AddProcessed(int(res.RowsAffected))
	return nil
}
