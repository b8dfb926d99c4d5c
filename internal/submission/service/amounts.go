package service

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/formpay/internal/currency"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/submission/domain"
)

// parseAmount reads a money value as typed into a form, e.g. "$1,234.50".
func parseAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, domain.ErrInvalidAmount
	}
	return value, nil
}

func lineItemsTotal(items []paymentdomain.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Total()
	}
	return total
}

// submissionData computes the amounts the orchestrator charges for an entry.
func submissionData(feed feeddomain.Feed, input domain.Input, code string, value func(string) string) (paymentdomain.SubmissionData, error) {
	data := paymentdomain.SubmissionData{
		LineItems: input.LineItems,
		Token:     input.Token,
		CardType:  strings.TrimSpace(input.CardType),
	}

	if feed.PaymentAmountField == feeddomain.PaymentAmountFormTotal {
		data.PaymentAmount = lineItemsTotal(input.LineItems)
	} else {
		amount, err := parseAmount(value(feed.PaymentAmountField))
		if err != nil {
			return data, err
		}
		data.PaymentAmount = amount
	}
	data.PaymentAmount = currency.Round(data.PaymentAmount, code)

	if feed.IsSubscription() && feed.SetupFee.Enabled {
		fee, err := parseAmount(value(feed.SetupFee.Field))
		if err != nil {
			return data, err
		}
		data.SetupFee = currency.Round(fee, code)
	}
	data.TrialDays = feed.TrialDays()

	if data.PaymentAmount <= 0 {
		return data, domain.ErrInvalidAmount
	}
	return data, nil
}
