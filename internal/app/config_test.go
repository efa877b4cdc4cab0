package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/apartment/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.False(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, 20, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)
	require.Equal(t, "apartment", cfg.Database.Postgres.Database)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "building-portal", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "portal_session", cfg.Auth.CookieName())

	require.Equal(t, 25, cfg.Notifications.PageSize)
	require.Equal(t, "Asia/Ho_Chi_Minh", cfg.Notifications.Timezone)
	require.Equal(t, 30, cfg.Notifications.RetentionDays)
	purge, metrics := cfg.Notifications.Schedules()
	require.Equal(t, "@weekly", purge)
	require.Equal(t, "@every 5m", metrics)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, 100, cfg.Server.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/apartment.sqlite", cfg.Database.Path)
	require.Equal(t, 10, cfg.Notifications.PageSize)
	require.Equal(t, "UTC", cfg.Notifications.Timezone)
	require.Equal(t, 180, cfg.Notifications.RetentionDays)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("APARTMENT_NOTIFICATIONS_PAGE_SIZE", "5")
	t.Setenv("APARTMENT_SERVER_PORT", "9191")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Notifications.PageSize)
	require.Equal(t, 9191, cfg.Server.Port)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())
	require.Equal(t, defaultSessionCookie, cfg.CookieName())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)
}

func TestNotificationConfigAdapter(t *testing.T) {
	cfg := NotificationConfig{Timezone: "Asia/Ho_Chi_Minh"}

	svcCfg, err := cfg.NotificationServiceConfig()
	require.NoError(t, err)
	require.Equal(t, defaultPageSize, svcCfg.PageSize)
	require.Equal(t, "Asia/Ho_Chi_Minh", svcCfg.Location.String())

	purge, metrics := cfg.Schedules()
	require.Equal(t, defaultPurgeSchedule, purge)
	require.Equal(t, defaultMetricsSchedule, metrics)
}

func TestNotificationConfigRejectsUnknownTimezone(t *testing.T) {
	cfg := NotificationConfig{Timezone: "Mars/Olympus_Mons"}

	_, err := cfg.NotificationServiceConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "notifications.timezone")
}

func TestNotificationConfigDefaultsToUTC(t *testing.T) {
	loc, err := NotificationConfig{}.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}
