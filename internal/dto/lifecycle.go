package dto

import "time"

// TransitionRequest moves a single resource to a new status.
type TransitionRequest struct {
	Kind     string `json:"type" binding:"required"`
	ID       int64  `json:"id" binding:"required"`
	Status   string `json:"status" binding:"required"`
	Feedback string `json:"feedback"`
}

// ArchiveRequest soft-deletes a single resource.
type ArchiveRequest struct {
	Kind   string `json:"type" binding:"required"`
	ID     int64  `json:"id" binding:"required"`
	Reason string `json:"reason"`
}

// RestoreRequest reactivates an archived resource.
type RestoreRequest struct {
	Kind string `json:"type" binding:"required"`
	ID   int64  `json:"id" binding:"required"`
}

// DeleteRequest permanently removes a resource and its backing files.
type DeleteRequest struct {
	Kind string `json:"type" binding:"required"`
	ID   int64  `json:"id" binding:"required"`
}

// DownloadTokenResponse carries a signed file download token.
type DownloadTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LifecycleResult confirms a single-item mutation back to the caller.
type LifecycleResult struct {
	Kind   string `json:"type"`
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}
