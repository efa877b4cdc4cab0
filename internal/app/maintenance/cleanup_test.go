package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	dbtestutil "github.com/charlesng35/apartment/internal/database/testutil"
	"github.com/charlesng35/apartment/internal/models"
	"github.com/charlesng35/apartment/internal/services"
	"github.com/charlesng35/apartment/pkg/metrics"
)

type stubStore struct {
	purgeErr  error
	countErr  error
	unread    int64
	removed   int64
	cutoffs   []time.Time
	countRuns int
}

func (s *stubStore) PurgeReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.removed, s.purgeErr
}

func (s *stubStore) CountUnread(context.Context) (int64, error) {
	s.countRuns++
	return s.unread, s.countErr
}

func TestCleanerRunOnceUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	store := &stubStore{unread: 7, removed: 2}

	cleaner := NewCleaner(store, WithNow(func() time.Time { return now }), WithRetentionDays(30))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	require.Equal(t, []time.Time{now.AddDate(0, 0, -30)}, store.cutoffs)
	require.Equal(t, 1, store.countRuns)
	require.Equal(t, float64(7), testutil.ToFloat64(metrics.UnreadNotifications))
}

func TestCleanerRetentionDisabled(t *testing.T) {
	store := &stubStore{}
	cleaner := NewCleaner(store, WithRetentionDays(0))

	removed, err := cleaner.Purge(context.Background())
	require.NoError(t, err)
	require.Zero(t, removed)
	require.Empty(t, store.cutoffs)
}

func TestCleanerRunOnceCombinesErrors(t *testing.T) {
	store := &stubStore{purgeErr: errors.New("purge"), countErr: errors.New("count")}
	cleaner := NewCleaner(store)

	err := cleaner.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
}

func TestCleanerWithoutStoreIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
	<-cleaner.Stop().Done()
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	c := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(&stubStore{}, WithCron(c), WithPurgeSchedule("@every 1h"), WithMetricsSchedule("@every 1m"))

	require.NoError(t, cleaner.Start())
	t.Cleanup(func() { <-cleaner.Stop().Done() })
	require.Len(t, c.Entries(), 2)
}

func TestCleanerStartRejectsInvalidSchedule(t *testing.T) {
	cleaner := NewCleaner(&stubStore{}, WithPurgeSchedule("every now and then"))
	require.Error(t, cleaner.Start())
}

func TestCleanerPurgesNotificationService(t *testing.T) {
	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithSeedData())
	svc, err := services.NewNotificationService(db, services.NotificationConfig{})
	require.NoError(t, err)

	sender := models.User{Username: "lan", Email: "lan@example.com"}
	require.NoError(t, db.Create(&sender).Error)

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	oldRead := now.AddDate(0, 0, -200)
	rows := []models.Notification{
		{SenderID: sender.ID, Title: "old", Status: models.NotificationRead, ReadAt: &oldRead},
		{SenderID: sender.ID, Title: "fresh", Status: models.NotificationUnread},
	}
	require.NoError(t, db.Create(&rows).Error)

	cleaner := NewCleaner(svc, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var titles []string
	require.NoError(t, db.Model(&models.Notification{}).Pluck("title", &titles).Error)
	require.Equal(t, []string{"fresh"}, titles)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.UnreadNotifications))
}
