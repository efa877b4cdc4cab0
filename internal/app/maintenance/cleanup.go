package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/apartment/pkg/logger"
	"github.com/charlesng35/apartment/pkg/metrics"
)

const (
	defaultRetentionDays = 180
	defaultPurgeSpec     = "@daily"
	defaultMetricsSpec   = "@every 1m"
)

// NotificationStore is the subset of the notification service used by background jobs.
type NotificationStore interface {
	PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountUnread(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance tasks: purging read notifications
// past their retention and refreshing the unread notification gauge.
type Cleaner struct {
	store     NotificationStore
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	purgeSchedule   string
	metricsSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetentionDays adjusts how long read notifications are kept. Zero or a
// negative value disables purging.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.retention = days
	}
}

// WithPurgeSchedule overrides the cron specification for the retention purge.
func WithPurgeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.purgeSchedule = spec
		}
	}
}

// WithMetricsSchedule overrides the cron specification for the unread gauge refresh.
func WithMetricsSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.metricsSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil store disables every job.
func NewCleaner(store NotificationStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		store:           store,
		now:             time.Now,
		retention:       defaultRetentionDays,
		purgeSchedule:   defaultPurgeSpec,
		metricsSchedule: defaultMetricsSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the maintenance jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.store == nil {
		return nil
	}

	if c.retention > 0 {
		if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
			if _, err := c.Purge(context.Background()); err != nil {
				c.log.Warn("notification purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if _, err := c.cron.AddFunc(c.metricsSchedule, func() {
		if err := c.RefreshUnreadGauge(context.Background()); err != nil {
			c.log.Warn("unread gauge refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// Purge removes read notifications older than the retention period.
func (c *Cleaner) Purge(ctx context.Context) (int64, error) {
	if c.store == nil || c.retention <= 0 {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := c.now().UTC().AddDate(0, 0, -c.retention)
	removed, err := c.store.PurgeReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.PurgedNotifications.Add(float64(removed))
		c.log.Info("purged read notifications",
			zap.Int64("count", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}

// RefreshUnreadGauge publishes the current number of unread notifications.
func (c *Cleaner) RefreshUnreadGauge(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	count, err := c.store.CountUnread(ctx)
	if err != nil {
		return err
	}
	metrics.UnreadNotifications.Set(float64(count))
	return nil
}

// RunOnce executes all maintenance routines sequentially. Used at start-up,
// during graceful shutdown and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error

	if _, err := c.Purge(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := c.RefreshUnreadGauge(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}
