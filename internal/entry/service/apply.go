package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/formpay/internal/currency"
	"github.com/smallbiznis/formpay/internal/entry/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const actionLockTTL = 30 * time.Second

var errDuplicateEvent = errors.New("duplicate_event")

// ApplyAction settles a reconciled webhook action at most once per event id.
func (s *Service) ApplyAction(ctx context.Context, action *paymentdomain.Action) (bool, error) {
	if action == nil || action.EntryID == 0 {
		return false, domain.ErrInvalidID
	}
	log := s.log.With(
		zap.String("event_id", action.ID),
		zap.String("action_type", string(action.Type)),
		zap.String("entry_id", action.EntryID.String()),
	)

	if s.locker != nil && action.ID != "" {
		key := "formpay:webhook:" + action.ID
		token, ok, err := s.locker.TryLock(ctx, key, actionLockTTL)
		if err != nil {
			log.Warn("webhook lock unavailable, relying on event table", zap.Error(err))
		} else if !ok {
			log.Info("webhook event already in progress")
			return false, nil
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					log.Warn("webhook lock release failed", zap.Error(err))
				}
			}()
		}
	}

	var applied *domain.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		if action.ID != "" {
			inserted, err := s.repo.InsertWebhookEvent(ctx, tx, &domain.WebhookEvent{
				ID:         s.genID.Generate(),
				EventID:    action.ID,
				EventType:  action.EventType,
				EntryID:    action.EntryID,
				Status:     domain.WebhookEventReceived,
				ReceivedAt: now,
			})
			if err != nil {
				return err
			}
			if !inserted {
				return errDuplicateEvent
			}
		}

		entry, err := s.repo.FindEntryByID(ctx, tx, action.EntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrEntryNotFound
		}

		update, noteType, note := settle(action, entry, now)
		entry, err = s.updatePayment(ctx, tx, entry.ID, update)
		if err != nil {
			return err
		}
		if err := s.addNote(ctx, tx, entry.ID, noteType, note); err != nil {
			return err
		}
		if action.ID != "" {
			if err := s.repo.MarkWebhookEventProcessed(ctx, tx, action.ID, now); err != nil {
				return err
			}
		}
		applied = entry
		return nil
	})
	if errors.Is(err, errDuplicateEvent) {
		log.Info("webhook event already applied")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	log.Info("webhook action applied", zap.String("payment_status", string(applied.PaymentStatus)))
	s.Notify(ctx, applied, string(action.Type))
	return true, nil
}

// settle maps an action onto the entry's payment columns and the note to record.
func settle(action *paymentdomain.Action, entry *domain.Entry, now time.Time) (domain.PaymentUpdate, domain.NoteType, string) {
	amount := currency.Format(action.Amount, entry.Currency)
	note := action.Note

	switch action.Type {
	case paymentdomain.ActionCompletePayment:
		if note == "" {
			note = fmt.Sprintf("Payment has been completed. Amount: %s. Transaction Id: %s", amount, action.TransactionID)
		}
		return domain.PaymentUpdate{
			TransactionID:   action.TransactionID,
			TransactionType: domain.TransactionTypePayment,
			Status:          domain.PaymentStatusPaid,
			Amount:          ptr(action.Amount),
			PaymentDate:     &now,
			IsFulfilled:     ptr(true),
		}, domain.NoteTypeSuccess, note

	case paymentdomain.ActionFailPayment:
		if note == "" {
			note = fmt.Sprintf("Payment has failed. Amount: %s. Transaction Id: %s", amount, action.TransactionID)
		}
		return domain.PaymentUpdate{Status: domain.PaymentStatusFailed}, domain.NoteTypeError, note

	case paymentdomain.ActionRefundPayment:
		if note == "" {
			note = fmt.Sprintf("Payment has been refunded. Amount: %s. Transaction Id: %s", amount, action.TransactionID)
		}
		return domain.PaymentUpdate{Status: domain.PaymentStatusRefunded}, domain.NoteTypeSuccess, note

	case paymentdomain.ActionCancelSubscription:
		if note == "" {
			note = fmt.Sprintf("Subscription has been cancelled. Subscription Id: %s", action.SubscriptionID)
		}
		return domain.PaymentUpdate{Status: domain.PaymentStatusCancelled}, domain.NoteTypeSuccess, note

	case paymentdomain.ActionAddSubscriptionPayment:
		if note == "" {
			note = fmt.Sprintf("Subscription payment has been paid. Amount: %s. Subscription Id: %s", amount, action.SubscriptionID)
		}
		return domain.PaymentUpdate{
			Status:      domain.PaymentStatusActive,
			PaymentDate: &now,
		}, domain.NoteTypeSuccess, note

	case paymentdomain.ActionFailSubscriptionPayment:
		if note == "" {
			note = fmt.Sprintf("Subscription payment has failed. Amount: %s. Subscription Id: %s", amount, action.SubscriptionID)
		}
		return domain.PaymentUpdate{Status: domain.PaymentStatusFailed}, domain.NoteTypeError, note
	}

	return domain.PaymentUpdate{}, domain.NoteTypeNote, note
}
