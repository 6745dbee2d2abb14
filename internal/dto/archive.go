package dto

import "github.com/mcabalar/acadrepo-api/internal/models"

// ListArchiveQuery filters the archived-items browser.
type ListArchiveQuery struct {
	Kind     string `form:"type"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ListArchiveResponse is the archived-items listing payload.
type ListArchiveResponse struct {
	Items      []models.ArchivedItem `json:"items"`
	Pagination models.Pagination     `json:"pagination"`
}
