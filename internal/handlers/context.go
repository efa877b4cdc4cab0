package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/apartment/internal/middleware"
	"github.com/charlesng35/apartment/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// viewerFromContext builds the notification viewer from identity set by the auth and role middleware.
func viewerFromContext(c *gin.Context) (services.Viewer, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		return services.Viewer{}, false
	}
	return services.Viewer{
		UserID: userID,
		Role:   c.GetString(middleware.CtxRoleKey),
	}, true
}
