package middleware

import (
	stdErrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/apartment/internal/permissions"
	"github.com/charlesng35/apartment/pkg/errors"
	"github.com/charlesng35/apartment/pkg/logger"
	"github.com/charlesng35/apartment/pkg/metrics"
	"github.com/charlesng35/apartment/pkg/response"
)

const (
	CtxRoleKey     = "role"
	CtxIdentityKey = "identity"
)

// RequireRole loads the authenticated user's role and rejects users holding
// none of the supplied roles. With no roles, any active user passes and only
// the identity is loaded.
func RequireRole(checker *permissions.Checker, roles ...string) gin.HandlerFunc {
	label := "any"
	if len(roles) > 0 {
		label = strings.Join(roles, "|")
	}

	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		identity, err := checker.Resolve(c.Request.Context(), userID)
		if err != nil {
			if stdErrors.Is(err, permissions.ErrUnknownUser) || stdErrors.Is(err, permissions.ErrInactiveUser) {
				metrics.RoleChecks.WithLabelValues(label, "denied").Inc()
				response.Error(c, errors.ErrUnauthorized)
				c.Abort()
				return
			}
			metrics.RoleChecks.WithLabelValues(label, "error").Inc()
			logger.WithModule("auth").Error("role lookup failed", zap.String("user_id", userID), zap.Error(err))
			response.Error(c, errors.ErrInternalServer)
			c.Abort()
			return
		}

		if len(roles) > 0 && !identity.HasRole(roles...) {
			metrics.RoleChecks.WithLabelValues(label, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.RoleChecks.WithLabelValues(label, "allowed").Inc()
		c.Set(CtxIdentityKey, identity)
		c.Set(CtxRoleKey, identity.Role)
		c.Next()
	}
}
