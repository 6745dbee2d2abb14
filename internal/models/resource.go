package models

import "time"

// ResourceStatus is the shared review lifecycle state for all resource kinds.
type ResourceStatus string

const (
	StatusPending     ResourceStatus = "pending"
	StatusUnderReview ResourceStatus = "under_review"
	StatusApproved    ResourceStatus = "approved"
	StatusRejected    ResourceStatus = "rejected"
)

// ValidStatus reports whether raw is one of the four lifecycle states.
// The state machine is deliberately permissive: any state may be reached
// from any other, matching how reviewers actually re-open decisions.
func ValidStatus(raw string) bool {
	switch ResourceStatus(raw) {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Resource is the kind-agnostic view of one content row, loaded through the
// registry descriptor. Column names differ per kind; the field meanings do not.
type Resource struct {
	ID         int64          `db:"id"`
	Kind       string         `db:"-"`
	Title      string         `db:"title"`
	OwnerID    int64          `db:"owner_id"`
	Status     ResourceStatus `db:"status"`
	Active     bool           `db:"is_active"`
	ArchivedAt *time.Time     `db:"archived_at"`
	ArchivedBy *int64         `db:"archived_by"`
	Feedback   *string        `db:"feedback"`
	FilePath   *string        `db:"file_path"`
	FileSize   *int64         `db:"file_size"`
	CreatedAt  time.Time      `db:"created_at"`
	ReviewedBy *int64         `db:"reviewed_by"`
	ReviewedAt *time.Time     `db:"reviewed_at"`
}

// ResourceRef addresses one resource by kind token and id, as received from
// clients in single-item and bulk operations.
type ResourceRef struct {
	Kind string `json:"type"`
	ID   int64  `json:"id"`
}
