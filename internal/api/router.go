package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/app"
	iauth "github.com/charlesng35/apartment/internal/auth"
	"github.com/charlesng35/apartment/internal/handlers"
	"github.com/charlesng35/apartment/internal/middleware"
	"github.com/charlesng35/apartment/internal/permissions"
)

// NewRouter builds the Gin engine, wires middleware and registers the notification routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	notificationCfg, err := cfg.Notifications.NotificationServiceConfig()
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	r.Use(middleware.RateLimit(rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	registerHealthRoutes(r, db)
	registerMetricsRoutes(r, cfg.Monitoring.Prometheus)

	checker, err := permissions.NewChecker(db)
	if err != nil {
		return nil, err
	}

	notificationHandler, err := handlers.NewNotificationHandler(db, notificationCfg)
	if err != nil {
		return nil, err
	}

	requireAuth := middleware.Auth(jwt, cfg.Auth.CookieName())
	registerNotificationRoutes(r, notificationHandler, checker, requireAuth)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
