package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // building timezones must resolve on minimal images

	"github.com/charlesng35/apartment/internal/services"
)

const (
	defaultPageSize        = 10
	defaultPurgeSchedule   = "@daily"
	defaultMetricsSchedule = "@every 1m"
)

// Location resolves the timezone used to interpret month and date filters.
func (c NotificationConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("notifications.timezone: %w", err)
	}
	return loc, nil
}

// NotificationServiceConfig converts NotificationConfig into service parameters.
func (c NotificationConfig) NotificationServiceConfig() (services.NotificationConfig, error) {
	loc, err := c.Location()
	if err != nil {
		return services.NotificationConfig{}, err
	}

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return services.NotificationConfig{
		PageSize: pageSize,
		Location: loc,
	}, nil
}

// Schedules returns the cron specs for retention purge and metric refresh jobs.
func (c NotificationConfig) Schedules() (purge, metrics string) {
	purge = strings.TrimSpace(c.PurgeSchedule)
	if purge == "" {
		purge = defaultPurgeSchedule
	}
	metrics = strings.TrimSpace(c.MetricsSchedule)
	if metrics == "" {
		metrics = defaultMetricsSchedule
	}
	return purge, metrics
}
