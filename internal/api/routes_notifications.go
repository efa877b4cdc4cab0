package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/apartment/internal/handlers"
	"github.com/charlesng35/apartment/internal/middleware"
	"github.com/charlesng35/apartment/internal/models"
	"github.com/charlesng35/apartment/internal/permissions"
)

func registerNotificationRoutes(r *gin.Engine, handler *handlers.NotificationHandler, checker *permissions.Checker, requireAuth gin.HandlerFunc) {
	r.GET(handlers.ResidentHistoryPath, requireAuth, middleware.RequireRole(checker, models.RoleResident), handler.History)
	r.GET(handlers.ManagerHistoryPath, requireAuth, middleware.RequireRole(checker, models.RoleApartmentManager), handler.History)
	r.GET(handlers.AdminHistoryPath, requireAuth, middleware.RequireRole(checker, models.RoleAdmin), handler.History)

	group := r.Group("/notifications", requireAuth, middleware.RequireRole(checker))
	{
		// Forms post to the trailing-slash form; a redirect would turn POST into a second request
		group.POST("/mark-read/:id", handler.MarkRead)
		group.POST("/mark-read/:id/", handler.MarkRead)
		group.POST("/mark-all-read", handler.MarkAllRead)
		group.POST("/mark-all-read/", handler.MarkAllRead)
		group.GET("/unread-count", handler.UnreadCount)
	}
}
