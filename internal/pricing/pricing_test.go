package pricing

import (
	"testing"

	"github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/stretchr/testify/assert"
)

func goldFeed() domain.Feed {
	return domain.Feed{
		ID:              3,
		Name:            "Gold Plan",
		TransactionType: domain.TransactionTypeSubscription,
		BillingCycle:    domain.BillingCycle{Length: 1, Unit: domain.BillingUnitMonth},
	}
}

func TestPlanID(t *testing.T) {
	assert.Equal(t, "goldplan_3_1month_20", PlanID(goldFeed(), 20, 0))
	assert.Equal(t, "goldplan_3_1month_trial14days_19.99", PlanID(goldFeed(), 19.99, 14))
}

func TestPlanIDDropsEmptyComponents(t *testing.T) {
	feed := goldFeed()
	feed.Name = ""
	assert.Equal(t, "3_1month_20", PlanID(feed, 20, 0))
	assert.Equal(t, "3_1month", PlanID(feed, 0, 0))
}

func TestPlanIDDeterministic(t *testing.T) {
	base := PlanID(goldFeed(), 20, 7)
	assert.Equal(t, base, PlanID(goldFeed(), 20, 7))

	renamed := goldFeed()
	renamed.Name = "Silver Plan"
	other := goldFeed()
	other.ID = 4
	weekly := goldFeed()
	weekly.BillingCycle = domain.BillingCycle{Length: 1, Unit: domain.BillingUnitWeek}

	variants := []string{
		PlanID(renamed, 20, 7),
		PlanID(other, 20, 7),
		PlanID(weekly, 20, 7),
		PlanID(goldFeed(), 20, 14),
		PlanID(goldFeed(), 25, 7),
	}
	for _, v := range variants {
		assert.NotEqual(t, base, v)
	}
}
