package models

import "time"

// RequestItem is the unified projection merging research papers, learning
// materials, general materials and approval requests into one logical
// collection. Content kinds always report medium priority; approval requests
// carry their stored priority.
type RequestItem struct {
	RequestID     int64      `db:"request_id" json:"request_id"`
	RequestType   string     `db:"request_type" json:"request_type"`
	ResourceID    int64      `db:"resource_id" json:"resource_id"`
	Title         string     `db:"title" json:"title"`
	Description   *string    `db:"description" json:"description,omitempty"`
	SubmittedBy   int64      `db:"submitted_by" json:"submitted_by"`
	RequesterName *string    `db:"requester_name" json:"requester_name,omitempty"`
	Department    *string    `db:"department_name" json:"department_name,omitempty"`
	Status        string     `db:"status" json:"status"`
	Priority      string     `db:"priority" json:"priority"`
	Category      *string    `db:"category" json:"category,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy    *int64     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	AdminFeedback *string    `db:"admin_feedback" json:"admin_feedback,omitempty"`
	FilePath      *string    `db:"file_path" json:"file_path,omitempty"`
}

// RequestFilter narrows the unified listing. Every filter is optional and
// AND-combined with the others.
type RequestFilter struct {
	Search     string
	Status     string
	Priority   string
	Department string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// RequestStats aggregates the unified collection for the admin dashboard.
type RequestStats struct {
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
	TodayApproved int            `json:"today_approved"`
}
