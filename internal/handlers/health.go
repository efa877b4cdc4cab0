package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/database"
	"github.com/charlesng35/apartment/pkg/errors"
	"github.com/charlesng35/apartment/pkg/response"
)

const healthPingTimeout = 2 * time.Second

var errDatabaseUnavailable = errors.New("SERVICE_UNAVAILABLE", "Database unavailable", http.StatusServiceUnavailable)

// Health reports liveness together with database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), healthPingTimeout)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			response.Error(c, errDatabaseUnavailable.WithInternal(err))
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
