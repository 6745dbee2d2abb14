package models

import "time"

// ArchivedItem is one row of the merged archived-items listing spanning
// classes, learning materials and research papers.
type ArchivedItem struct {
	ItemType      string     `db:"item_type" json:"item_type"`
	ItemID        int64      `db:"item_id" json:"item_id"`
	Title         string     `db:"title" json:"title"`
	CreatedByName *string    `db:"created_by_name" json:"created_by_name,omitempty"`
	Department    *string    `db:"department" json:"department,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ArchivedAt    *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	FilePath      *string    `db:"file_path" json:"file_path,omitempty"`
}

// ArchiveFilter narrows the archived-items listing.
type ArchiveFilter struct {
	ItemType   string
	Department string
	Search     string
	Page       int
	PageSize   int
}

// ArchiveStats summarizes the archive for the dashboard.
type ArchiveStats struct {
	ByType         map[string]int `json:"by_type"`
	TotalArchived  int            `json:"total_archived"`
	RecentArchived int            `json:"recent_archived"`
}
