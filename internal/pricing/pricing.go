// Package pricing derives provider plan identifiers from feed configuration.
package pricing

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/formpay/internal/feed/domain"
)

// PlanID returns the deterministic plan identifier for a subscription feed and
// amount. Identical inputs always yield the same identifier so an existing
// provider plan is reused instead of recreated.
func PlanID(feed domain.Feed, amount float64, trialDays int) string {
	parts := []string{
		strings.ToLower(strings.ReplaceAll(feed.Name, " ", "")),
		feed.ID.String(),
		cycleComponent(feed.BillingCycle),
		trialComponent(trialDays),
		FormatAmount(amount),
	}

	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "0" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "_")
}

// FormatAmount renders amount in its shortest decimal form ("20", "19.99").
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func cycleComponent(cycle domain.BillingCycle) string {
	if cycle.Length == 0 && cycle.Unit == "" {
		return ""
	}
	return strconv.Itoa(cycle.Length) + string(cycle.Unit)
}

func trialComponent(days int) string {
	if days <= 0 {
		return ""
	}
	return "trial" + strconv.Itoa(days) + "days"
}
