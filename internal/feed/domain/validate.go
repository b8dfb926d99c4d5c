package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(feedStructLevel, Feed{})
	return v
}

// cycleBounds are the allowed billing cycle lengths per unit.
var cycleBounds = map[BillingUnit][2]int{
	BillingUnitDay:   {1, 365},
	BillingUnitWeek:  {1, 12},
	BillingUnitMonth: {1, 12},
	BillingUnitYear:  {1, 1},
}

// CycleBounds returns the inclusive length range allowed for unit.
func CycleBounds(unit BillingUnit) (int, int, bool) {
	bounds, ok := cycleBounds[unit]
	return bounds[0], bounds[1], ok
}

// Validate checks the feed against the configuration rules. The returned error is a
// validator.ValidationErrors when a field rule fails.
func (f Feed) Validate() error {
	return validate.Struct(f)
}

func feedStructLevel(sl validator.StructLevel) {
	feed := sl.Current().Interface().(Feed)

	if feed.TransactionType == TransactionTypeSubscription {
		min, max, ok := CycleBounds(feed.BillingCycle.Unit)
		if !ok {
			sl.ReportError(feed.BillingCycle.Unit, "billing_cycle.unit", "Unit", "required", "")
		} else if feed.BillingCycle.Length < min || feed.BillingCycle.Length > max {
			sl.ReportError(feed.BillingCycle.Length, "billing_cycle.length", "Length", "cycle_range", feed.BillingCycle.Unit.String())
		}
	}

	if feed.SetupFee.Enabled {
		if feed.TransactionType != TransactionTypeSubscription {
			sl.ReportError(feed.SetupFee.Enabled, "setup_fee.enabled", "Enabled", "subscription_only", "")
		}
		if feed.SetupFee.Field == "" {
			sl.ReportError(feed.SetupFee.Field, "setup_fee.field", "Field", "required", "")
		}
		if feed.Trial.Enabled {
			sl.ReportError(feed.Trial.Enabled, "trial.enabled", "Enabled", "excluded_with_setup_fee", "")
		}
	}

	seen := make(map[string]struct{}, len(feed.Metadata))
	for _, meta := range feed.Metadata {
		if _, dup := seen[meta.Key]; dup {
			sl.ReportError(meta.Key, "metadata.key", "Key", "unique", "")
			continue
		}
		seen[meta.Key] = struct{}{}
	}
}

func (u BillingUnit) String() string { return string(u) }
