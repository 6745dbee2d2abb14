package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	CountByUser(ctx context.Context, userID int64, unreadOnly bool) (int, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID int64, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// NotificationService owns the in-app notification feed.
type NotificationService struct {
	store  notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(store notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, logger: logger}
}

// Notify appends one notification. Failures are logged and swallowed:
// notifications never abort the operation whose outcome they report.
func (s *NotificationService) Notify(ctx context.Context, userID int64, title, message string, kind models.NotificationType) {
	n := models.Notification{UserID: userID, Title: title, Message: message, Type: kind}
	if err := s.store.Create(ctx, &n); err != nil {
		s.logger.Warn("notification dispatch failed",
			zap.Int64("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// Create appends one notification and reports the outcome to the caller.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	return s.store.Create(ctx, n)
}

// List returns one page of a user's feed plus the unread counter.
func (s *NotificationService) List(ctx context.Context, userID int64, q dto.ListNotificationsQuery) (*dto.ListNotificationsResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	total, err := s.store.CountByUser(ctx, userID, q.UnreadOnly)
	if err != nil {
		return nil, fmt.Errorf("count notification feed: %w", err)
	}
	notifications, err := s.store.ListByUser(ctx, userID, q.UnreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list notification feed: %w", err)
	}
	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	return &dto.ListNotificationsResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		Pagination: models.Pagination{
			CurrentPage: page,
			PerPage:     pageSize,
			Total:       total,
			TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

// MarkRead acknowledges the given notifications for the user.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.ErrValidation.WithDetails("ids must not be empty")
	}
	return s.store.MarkRead(ctx, userID, ids)
}

// MarkAllRead acknowledges the user's whole feed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
