package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubscriptionFeed() Feed {
	return Feed{
		FormID:             42,
		Name:               "Gold Plan",
		IsActive:           true,
		TransactionType:    TransactionTypeSubscription,
		PaymentAmountField: "3",
		BillingCycle:       BillingCycle{Length: 1, Unit: BillingUnitMonth},
	}
}

func failedTags(t *testing.T, err error) []string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	tags := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tags = append(tags, fe.Tag())
	}
	return tags
}

func TestFeedValidate_CycleBounds(t *testing.T) {
	cases := []struct {
		unit   BillingUnit
		length int
		ok     bool
	}{
		{BillingUnitDay, 1, true},
		{BillingUnitDay, 365, true},
		{BillingUnitDay, 366, false},
		{BillingUnitWeek, 12, true},
		{BillingUnitWeek, 13, false},
		{BillingUnitMonth, 0, false},
		{BillingUnitMonth, 12, true},
		{BillingUnitYear, 1, true},
		{BillingUnitYear, 2, false},
	}
	for _, tc := range cases {
		feed := validSubscriptionFeed()
		feed.BillingCycle = BillingCycle{Length: tc.length, Unit: tc.unit}
		err := feed.Validate()
		if tc.ok {
			assert.NoError(t, err, "%d %s", tc.length, tc.unit)
			continue
		}
		assert.Contains(t, failedTags(t, err), "cycle_range", "%d %s", tc.length, tc.unit)
	}
}

func TestFeedValidate_ProductIgnoresCycle(t *testing.T) {
	feed := validSubscriptionFeed()
	feed.TransactionType = TransactionTypeProduct
	feed.BillingCycle = BillingCycle{}
	assert.NoError(t, feed.Validate())
}

func TestFeedValidate_SetupFeeExcludesTrial(t *testing.T) {
	feed := validSubscriptionFeed()
	feed.SetupFee = SetupFee{Enabled: true, Field: "5"}
	feed.Trial = Trial{Enabled: true, PeriodDays: 7}
	assert.Contains(t, failedTags(t, feed.Validate()), "excluded_with_setup_fee")

	feed.Trial = Trial{}
	assert.NoError(t, feed.Validate())
}

func TestFeedValidate_Metadata(t *testing.T) {
	feed := validSubscriptionFeed()
	for i := 0; i < MaxMetadataEntries+1; i++ {
		feed.Metadata = append(feed.Metadata, MetaMapping{Key: "k" + strings.Repeat("x", i), FieldID: "1"})
	}
	assert.Contains(t, failedTags(t, feed.Validate()), "max")

	feed.Metadata = []MetaMapping{{Key: strings.Repeat("k", MaxMetadataKeyLength+1), FieldID: "1"}}
	assert.Contains(t, failedTags(t, feed.Validate()), "max")

	feed.Metadata = []MetaMapping{{Key: "plan", FieldID: "1"}, {Key: "plan", FieldID: "2"}}
	assert.Contains(t, failedTags(t, feed.Validate()), "unique")
}

func TestFeedRecordRoundTrip(t *testing.T) {
	feed := validSubscriptionFeed()
	feed.ID = 7
	feed.Customer = CustomerFields{EmailField: "2", CouponField: "9"}
	feed.Metadata = []MetaMapping{{Key: "plan", FieldID: "4"}}

	record, err := feed.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, "subscription", record.TransactionType)

	decoded, err := FeedFromRecord(record)
	require.NoError(t, err)
	assert.Equal(t, feed, decoded)
}
