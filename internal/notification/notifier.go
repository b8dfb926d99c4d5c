package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smallbiznis/formpay/internal/currency"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var mergeTag = regexp.MustCompile(`\{([a-z_]+)(?::([^}]+))?\}`)

type Params struct {
	fx.In

	Email email.Provider
	Log   *zap.Logger
}

// Notifier sends a form's configured notifications through email.
type Notifier struct {
	email email.Provider
	log   *zap.Logger
}

func New(p Params) entrydomain.Notifier {
	return &Notifier{
		email: p.Email,
		log:   p.Log.Named("notification"),
	}
}

func (n *Notifier) Notify(ctx context.Context, form *entrydomain.Form, entry *entrydomain.Entry, event string) error {
	notifications := form.NotificationsFor(event)
	if len(notifications) == 0 {
		return nil
	}

	var errs []error
	for _, notification := range notifications {
		msg := email.Message{
			To:      notification.To,
			Subject: Render(notification.Subject, form, entry),
			Body:    Render(notification.Message, form, entry),
		}
		if err := n.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", strings.Join(notification.To, ","), err))
			continue
		}
		n.log.Debug("notification sent",
			zap.String("event", event),
			zap.String("entry_id", entry.ID.String()),
			zap.Int("recipients", len(notification.To)),
		)
	}
	return errors.Join(errs...)
}

// Render replaces merge tags such as {entry_id} and {field:3} with entry data.
// Unknown tags are left as written.
func Render(text string, form *entrydomain.Form, entry *entrydomain.Entry) string {
	return mergeTag.ReplaceAllStringFunc(text, func(tag string) string {
		parts := mergeTag.FindStringSubmatch(tag)
		switch parts[1] {
		case "entry_id":
			return entry.ID.String()
		case "form_title":
			return form.Title
		case "transaction_id":
			return entry.TransactionID
		case "payment_status":
			return string(entry.PaymentStatus)
		case "payment_method":
			return entry.PaymentMethod
		case "payment_amount":
			return currency.Format(entry.PaymentAmount, entry.Currency)
		case "field":
			return entry.Value(parts[2])
		}
		return tag
	})
}
