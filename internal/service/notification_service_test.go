package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type notificationStoreStub struct {
	feed      []models.Notification
	createErr error
	marked    []string
	markedAll bool
}

func (s *notificationStoreStub) Create(_ context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.feed = append(s.feed, *n)
	return nil
}

func (s *notificationStoreStub) ListByUser(_ context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.feed {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (s *notificationStoreStub) CountByUser(_ context.Context, userID int64, unreadOnly bool) (int, error) {
	var count int
	for _, n := range s.feed {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			count++
		}
	}
	return count, nil
}

func (s *notificationStoreStub) UnreadCount(_ context.Context, userID int64) (int, error) {
	return s.CountByUser(context.Background(), userID, true)
}

func (s *notificationStoreStub) MarkRead(_ context.Context, _ int64, ids []string) (int64, error) {
	s.marked = append(s.marked, ids...)
	return int64(len(ids)), nil
}

func (s *notificationStoreStub) MarkAllRead(_ context.Context, _ int64) (int64, error) {
	s.markedAll = true
	return int64(len(s.feed)), nil
}

func TestNotifySwallowsFailures(t *testing.T) {
	store := &notificationStoreStub{createErr: errors.New("store down")}
	svc := NewNotificationService(store, nil)

	// must not panic or surface the error
	svc.Notify(context.Background(), 3, "Status updated", "approved", models.NotificationSuccess)
	require.Empty(t, store.feed)
}

func TestNotificationListPaginatesAndCountsUnread(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil)
	for i := 0; i < 5; i++ {
		svc.Notify(context.Background(), 3, "n", "m", models.NotificationInfo)
	}
	svc.Notify(context.Background(), 4, "other", "m", models.NotificationInfo)

	resp, err := svc.List(context.Background(), 3, dto.ListNotificationsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 2)
	require.Equal(t, 5, resp.Pagination.Total)
	require.Equal(t, 3, resp.Pagination.TotalPages)
	require.Equal(t, 5, resp.UnreadCount)
}

func TestNotificationMarkReadValidatesIDs(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil)

	_, err := svc.MarkRead(context.Background(), 3, nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	affected, err := svc.MarkRead(context.Background(), 3, []string{"n-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Equal(t, []string{"n-1"}, store.marked)
}
