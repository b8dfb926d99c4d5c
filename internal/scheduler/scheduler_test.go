package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/smallbiznis/formpay/internal/clock"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/entry/repository"
	entryservice "github.com/smallbiznis/formpay/internal/entry/service"
	"github.com/smallbiznis/formpay/internal/migration"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[snowflake.ID][]string
}

func (n *recordingNotifier) Notify(_ context.Context, _ *entrydomain.Form, entry *entrydomain.Entry, event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[entry.ID] = append(n.events[entry.ID], event)
	return nil
}

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	entries  *entryservice.Service
	notifier *recordingNotifier
	sched    *Scheduler
	registry *prometheus.Registry
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	t.Cleanup(restore)
	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{ServiceName: "formpay", Environment: "test"})

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{events: map[snowflake.ID][]string{}}
	entries := entryservice.New(entryservice.Params{
		DB:       db,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Repo:     repository.Provide(),
		Notifier: notifier,
		Clock:    clk,
	})

	sched, err := New(Params{
		DB:      db,
		Log:     zaptest.NewLogger(t),
		Entries: entries,
		GenID:   node,
		Clock:   clk,
		Config:  cfg,
	})
	require.NoError(t, err)

	return &fixture{db: db, clock: clk, entries: entries, notifier: notifier, sched: sched, registry: registry}
}

func (f *fixture) checkoutEntry(t *testing.T, form entrydomain.Form, status entrydomain.PaymentStatus, withURL bool) entrydomain.Entry {
	t.Helper()
	ctx := context.Background()
	entry, err := f.entries.CreateEntry(ctx, entrydomain.Entry{
		FormID:          form.ID,
		Currency:        form.Currency,
		TransactionType: entrydomain.TransactionTypePayment,
		PaymentStatus:   status,
	})
	require.NoError(t, err)
	if withURL {
		require.NoError(t, f.entries.SetMeta(ctx, entry.ID, entrydomain.MetaCheckoutURL, "https://checkout.stripe.com/c/pay/cs_1"))
	}
	return entry
}

func TestExpireCheckoutsJob(t *testing.T) {
	f := newFixture(t, Config{CheckoutExpiry: 24 * time.Hour, EnabledJobs: []string{JobExpireCheckouts}})
	ctx := context.Background()

	form, err := f.entries.CreateForm(ctx, entrydomain.Form{Title: "Workshop", Currency: "USD"})
	require.NoError(t, err)

	abandoned := f.checkoutEntry(t, form, entrydomain.PaymentStatusProcessing, true)
	paid := f.checkoutEntry(t, form, entrydomain.PaymentStatusPaid, true)
	direct := f.checkoutEntry(t, form, entrydomain.PaymentStatusProcessing, false)

	f.clock.Advance(20 * time.Hour)
	recent := f.checkoutEntry(t, form, entrydomain.PaymentStatusProcessing, true)
	f.clock.Advance(5 * time.Hour)

	require.NoError(t, f.sched.RunOnce(ctx))

	got, err := f.entries.GetEntry(ctx, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, entrydomain.PaymentStatusFailed, got.PaymentStatus)

	notes, err := f.entries.ListNotes(ctx, abandoned.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, entrydomain.NoteTypeError, notes[0].NoteType)
	assert.Equal(t, checkoutExpiredNote, notes[0].Body)
	assert.Equal(t, []string{entrydomain.EventFailPayment}, f.notifier.events[abandoned.ID])

	for _, untouched := range []entrydomain.Entry{paid, direct, recent} {
		got, err := f.entries.GetEntry(ctx, untouched.ID)
		require.NoError(t, err)
		assert.Equal(t, untouched.PaymentStatus, got.PaymentStatus, "entry %s", untouched.ID)
		assert.Empty(t, f.notifier.events[untouched.ID])
	}

	assert.Equal(t, float64(1), getCounterValue(t, f.registry, "formpay_scheduler_batch_processed_total", map[string]string{
		"service": "formpay",
		"env":     "test",
		"job":     JobExpireCheckouts,
	}))

	// A second pass finds nothing left to expire.
	require.NoError(t, f.sched.RunOnce(ctx))
	notes, err = f.entries.ListNotes(ctx, abandoned.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestPurgeWebhookEventsJob(t *testing.T) {
	f := newFixture(t, Config{WebhookRetention: 30 * 24 * time.Hour, EnabledJobs: []string{JobPurgeWebhookEvents}})
	now := f.clock.Now().UTC()
	old := now.Add(-31 * 24 * time.Hour)
	fresh := now.Add(-24 * time.Hour)

	events := []entrydomain.WebhookEvent{
		{ID: 1, EventID: "evt_old", EventType: "charge.refunded", EntryID: 9, Status: entrydomain.WebhookEventProcessed, ReceivedAt: old, ProcessedAt: &old},
		{ID: 2, EventID: "evt_fresh", EventType: "charge.refunded", EntryID: 9, Status: entrydomain.WebhookEventProcessed, ReceivedAt: fresh, ProcessedAt: &fresh},
		{ID: 3, EventID: "evt_received", EventType: "charge.refunded", EntryID: 9, Status: entrydomain.WebhookEventReceived, ReceivedAt: old},
	}
	require.NoError(t, f.db.Create(&events).Error)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	var remaining []string
	require.NoError(t, f.db.Model(&entrydomain.WebhookEvent{}).Order("event_id").Pluck("event_id", &remaining).Error)
	assert.Equal(t, []string{"evt_fresh", "evt_received"}, remaining)
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	obsmetrics.ResetSchedulerMetricsForTest()
	obsmetrics.SchedulerWithConfig(obsmetrics.Config{
		ServiceName: "formpay",
		Environment: "test",
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Time{})}
	err = s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	labels := map[string]string{
		"service": "formpay",
		"env":     "test",
		"job":     "timeout_job",
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "formpay_scheduler_job_timeouts_total", labels))

	errorLabels := map[string]string{
		"service": "formpay",
		"env":     "test",
		"job":     "timeout_job",
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "formpay_scheduler_job_errors_total", errorLabels))
}

func TestRunJobWrapsErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSchedulerMetricsForTest()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Time{})}
	boom := fmt.Errorf("boom")
	err = s.runJob(context.Background(), "failing_job", 1, time.Second, func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing_job")
}

func TestIsJobEnabled(t *testing.T) {
	all := &Scheduler{cfg: Config{}}
	assert.True(t, all.isJobEnabled(JobExpireCheckouts))

	some := &Scheduler{cfg: Config{EnabledJobs: []string{"PURGE_WEBHOOK_EVENTS"}}}
	assert.True(t, some.isJobEnabled(JobPurgeWebhookEvents))
	assert.False(t, some.isJobEnabled(JobExpireCheckouts))
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
