package dto

import "github.com/mcabalar/acadrepo-api/internal/models"

// ListNotificationsQuery filters a user's notification feed.
type ListNotificationsQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page"`
	PageSize   int  `form:"page_size"`
}

// ListNotificationsResponse is the paginated feed payload.
type ListNotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
	Pagination    models.Pagination     `json:"pagination"`
}

// MarkReadRequest marks specific notifications as read.
type MarkReadRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}
