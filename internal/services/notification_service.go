package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/models"
	apperrors "github.com/charlesng35/apartment/pkg/errors"
	"github.com/charlesng35/apartment/pkg/logger"
	"github.com/charlesng35/apartment/pkg/metrics"
)

// DefaultPageSize is used when NotificationConfig leaves PageSize unset.
const DefaultPageSize = 10

// ErrNotificationForbidden marks a notification outside the viewer's scope.
var ErrNotificationForbidden = apperrors.ErrForbidden.WithMessage("You do not have permission to view this notification.")

// NotificationConfig tunes history listings.
type NotificationConfig struct {
	PageSize int
	Location *time.Location
}

// Viewer identifies who is looking at notifications.
type Viewer struct {
	UserID string
	Role   string
}

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Status       string         `json:"status"`
	IsRead       bool           `json:"is_read"`
	Broadcast    bool           `json:"broadcast"`
	SenderID     string         `json:"sender_id"`
	SenderName   string         `json:"sender_name"`
	SenderRole   string         `json:"sender_role,omitempty"`
	ReceiverID   *string        `json:"receiver_id,omitempty"`
	ReceiverName string         `json:"receiver_name,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ReadAt       *time.Time     `json:"read_at,omitempty"`
}

// HistoryPage is one page of a viewer's notification history.
type HistoryPage struct {
	Items        []NotificationDTO `json:"notifications"`
	Filters      HistoryFilters    `json:"filters"`
	FilterTypes  []string          `json:"filter_types"`
	FilterErrors []string          `json:"-"`
	Pagination   Pagination        `json:"pagination"`
}

// NotificationService exposes role-scoped notification queries and updates.
type NotificationService struct {
	db       *gorm.DB
	pageSize int
	location *time.Location
	now      func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, cfg NotificationConfig) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{
		db:       db,
		pageSize: pageSize,
		location: loc,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *NotificationService) scoped(ctx context.Context, viewer Viewer) *gorm.DB {
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Joins(notificationSenderJoin)
	return applyScope(query, viewer)
}

// History lists the viewer's notifications filtered, sorted and paginated
// according to the supplied query parameters.
func (s *NotificationService) History(ctx context.Context, viewer Viewer, query HistoryQuery) (*HistoryPage, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return nil, err
	}
	if !models.IsKnownRole(viewer.Role) {
		return nil, apperrors.ErrForbidden
	}

	criteria := parseHistoryQuery(viewer, query, s.location)

	var total int64
	if err := criteria.apply(s.scoped(ctx, viewer), viewer).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("notification service: count history: %w", err)
	}

	page := paginate(total, s.pageSize, query.Page)

	var rows []models.Notification
	if err := criteria.apply(s.scoped(ctx, viewer), viewer).
		Select("notifications.*").
		Preload("Sender").
		Preload("Receiver").
		Order(orderClause(criteria.filters.SortBy)).
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list history: %w", err)
	}

	return &HistoryPage{
		Items:        mapNotificationRows(rows),
		Filters:      criteria.filters,
		FilterTypes:  FilterTypesFor(viewer.Role),
		FilterErrors: criteria.errors,
		Pagination:   page,
	}, nil
}

// CanView reports whether the notification lies within the viewer's scope.
func (s *NotificationService) CanView(ctx context.Context, viewer Viewer, notificationID string) (bool, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return false, err
	}

	var count int64
	if err := s.scoped(ctx, viewer).
		Where("notifications.id = ?", strings.TrimSpace(notificationID)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("notification service: check visibility: %w", err)
	}
	return count > 0, nil
}

// CanMarkRead reports whether the viewer may mark the notification as read.
// This is wider than CanView: resident broadcasts and notifications sent by
// an admin may be marked by anyone.
func (s *NotificationService) CanMarkRead(ctx context.Context, viewer Viewer, notificationID string) (bool, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return false, err
	}

	var count int64
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Joins(notificationSenderJoin)
	if err := applyMarkReadScope(query, viewer.UserID).
		Where("notifications.id = ?", strings.TrimSpace(notificationID)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("notification service: check mark-read permission: %w", err)
	}
	return count > 0, nil
}

// MarkRead marks a single notification as read on behalf of the viewer.
// Already-read notifications keep their original read timestamp.
func (s *NotificationService) MarkRead(ctx context.Context, viewer Viewer, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return nil, err
	}
	log := logger.WithModule("notifications")

	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		metrics.NotificationReads.WithLabelValues("not_found").Inc()
		return nil, apperrors.ErrNotFound
	}

	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.NotificationReads.WithLabelValues("not_found").Inc()
			return nil, apperrors.ErrNotFound
		}
		metrics.NotificationReads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	allowed, err := s.CanMarkRead(ctx, viewer, notification.ID)
	if err != nil {
		metrics.NotificationReads.WithLabelValues("error").Inc()
		return nil, err
	}
	if !allowed {
		metrics.NotificationReads.WithLabelValues("denied").Inc()
		log.Debug("mark read denied",
			zap.String("notification_id", notification.ID),
			zap.String("user_id", viewer.UserID),
			zap.String("role", viewer.Role),
		)
		return nil, ErrNotificationForbidden
	}

	if notification.IsRead() && notification.ReadAt != nil {
		metrics.NotificationReads.WithLabelValues("already_read").Inc()
		dto := mapNotification(notification)
		return &dto, nil
	}

	now := s.now()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		Updates(map[string]any{
			"status":  models.NotificationRead,
			"read_at": now,
		}).Error; err != nil {
		metrics.NotificationReads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.Status = models.NotificationRead
	notification.ReadAt = &now
	metrics.NotificationReads.WithLabelValues("read").Inc()
	log.Info("notification marked as read",
		zap.String("notification_id", notification.ID),
		zap.String("user_id", viewer.UserID),
	)

	dto := mapNotification(notification)
	return &dto, nil
}

// MarkAllRead marks every unread notification in the viewer's scope as read
// and returns how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer Viewer) (int64, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return 0, err
	}

	unread := s.scoped(ctx, viewer).
		Where("notifications.status = ?", models.NotificationUnread).
		Select("notifications.id")
	// MySQL refuses a subquery on the updated table unless it is materialised
	targets := s.db.WithContext(ctx).Table("(?) AS targets", unread).Select("targets.id")

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN (?) AND status = ?", targets, models.NotificationUnread).
		Updates(map[string]any{
			"status":  models.NotificationRead,
			"read_at": s.now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}

	metrics.NotificationReads.WithLabelValues("read").Add(float64(result.RowsAffected))
	logger.WithModule("notifications").Info("notifications marked as read",
		zap.String("user_id", viewer.UserID),
		zap.Int64("count", result.RowsAffected),
	)
	return result.RowsAffected, nil
}

// UnreadCount returns the number of unread notifications in the viewer's scope.
func (s *NotificationService) UnreadCount(ctx context.Context, viewer Viewer) (int64, error) {
	ctx = ensureContext(ctx)
	if err := validateViewer(viewer); err != nil {
		return 0, err
	}

	var count int64
	if err := s.scoped(ctx, viewer).
		Where("notifications.status = ?", models.NotificationUnread).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// CountUnread returns the number of unread notifications across all users.
func (s *NotificationService) CountUnread(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("status = ?", models.NotificationUnread).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// PurgeReadBefore deletes read notifications that were read before the cutoff.
// Read notifications without a read timestamp fall back to their creation time.
func (s *NotificationService) PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	cutoff = cutoff.UTC()

	result := s.db.WithContext(ctx).
		Where("status = ?", models.NotificationRead).
		Where("read_at < ? OR (read_at IS NULL AND created_at < ?)", cutoff, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: purge read notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func validateViewer(viewer Viewer) error {
	if strings.TrimSpace(viewer.UserID) == "" {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:         row.ID,
		Title:      row.Title,
		Message:    row.Message,
		Status:     defaultIfEmpty(row.Status, models.NotificationUnread),
		IsRead:     row.IsRead(),
		Broadcast:  row.IsBroadcast(),
		SenderID:   row.SenderID,
		ReceiverID: row.ReceiverID,
		Metadata:   decodeJSON(row.Metadata),
		CreatedAt:  row.CreatedAt,
		ReadAt:     row.ReadAt,
	}
	if row.Sender != nil {
		dto.SenderName = defaultIfEmpty(row.Sender.FullName, row.Sender.Username)
		dto.SenderRole = row.Sender.RoleName()
	}
	if row.Receiver != nil {
		dto.ReceiverName = defaultIfEmpty(row.Receiver.FullName, row.Receiver.Username)
	}
	return dto
}
