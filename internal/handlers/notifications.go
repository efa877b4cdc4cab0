package handlers

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/flash"
	"github.com/charlesng35/apartment/internal/models"
	"github.com/charlesng35/apartment/internal/services"
	"github.com/charlesng35/apartment/pkg/errors"
	"github.com/charlesng35/apartment/pkg/response"
)

// History page locations per role.
const (
	ResidentHistoryPath = "/resident/notifications/"
	ManagerHistoryPath  = "/manager/notifications/"
	AdminHistoryPath    = "/admin/notifications/"
	DashboardPath       = "/dashboard"
)

// Flash texts.
const (
	MessageMarkedRead = "Notification marked as read."
)

// HistoryPath returns the history page of a role, or the dashboard for users
// without a recognised role.
func HistoryPath(role string) string {
	switch role {
	case models.RoleResident:
		return ResidentHistoryPath
	case models.RoleApartmentManager:
		return ManagerHistoryPath
	case models.RoleAdmin:
		return AdminHistoryPath
	default:
		return DashboardPath
	}
}

// NotificationHandler exposes HTTP endpoints for notification history.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(db *gorm.DB, cfg services.NotificationConfig) (*NotificationHandler, error) {
	service, err := services.NewNotificationService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &NotificationHandler{service: service}, nil
}

type historyPayload struct {
	Notifications []services.NotificationDTO `json:"notifications"`
	Filters       services.HistoryFilters    `json:"filters"`
	FilterTypes   []string                   `json:"filter_types"`
	Messages      []flash.Message            `json:"messages"`
	HasNext       bool                       `json:"has_next"`
	HasPrevious   bool                       `json:"has_previous"`
}

// History lists the caller's notifications. The role gate in front of the
// route decides which of the three history pages this serves.
func (h *NotificationHandler) History(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var query services.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, errors.NewBadRequest("invalid query parameters"))
		return
	}

	page, err := h.service.History(requestContext(c), viewer, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	messages := flash.Consume(c)
	for _, text := range page.FilterErrors {
		messages = append(messages, flash.Message{Level: flash.LevelError, Text: text})
	}
	if messages == nil {
		messages = []flash.Message{}
	}

	response.SuccessWithMeta(c, http.StatusOK, historyPayload{
		Notifications: page.Items,
		Filters:       page.Filters,
		FilterTypes:   page.FilterTypes,
		Messages:      messages,
		HasNext:       page.Pagination.HasNext,
		HasPrevious:   page.Pagination.HasPrevious,
	}, &response.Meta{
		Page:       page.Pagination.Page,
		PerPage:    page.Pagination.PerPage,
		Total:      page.Pagination.Total,
		TotalPages: page.Pagination.TotalPages,
	})
}

// MarkRead marks one notification as read and redirects to the caller's
// history page. Notifications the caller may not mark are left untouched and
// the caller is redirected with an error message instead.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id, ok := pathID(c, "id", "required,uuid")
	if !ok {
		response.Error(c, errors.ErrNotFound)
		return
	}

	if _, err := h.service.MarkRead(requestContext(c), viewer, id); err != nil {
		if stdErrors.Is(err, errors.ErrForbidden) {
			flash.Error(c, services.ErrNotificationForbidden.Message)
			c.Redirect(http.StatusSeeOther, HistoryPath(viewer.Role))
			return
		}
		response.Error(c, err)
		return
	}

	flash.Success(c, MessageMarkedRead)
	c.Redirect(http.StatusSeeOther, HistoryPath(viewer.Role))
}

// MarkAllRead marks every unread notification visible to the caller as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	count, err := h.service.MarkAllRead(requestContext(c), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	flash.Success(c, fmt.Sprintf("%d notifications marked as read.", count))
	c.Redirect(http.StatusSeeOther, HistoryPath(viewer.Role))
}

// UnreadCount returns the number of unread notifications visible to the caller.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(requestContext(c), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}
