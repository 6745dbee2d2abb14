package dto

import "github.com/mcabalar/acadrepo-api/internal/models"

// ListRequestsQuery captures the filters for the unified request listing.
type ListRequestsQuery struct {
	Search     string `form:"search"`
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	Department string `form:"department"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// ListRequestsResponse is the paginated unified listing payload.
type ListRequestsResponse struct {
	Requests   []models.RequestItem `json:"requests"`
	Pagination models.Pagination    `json:"pagination"`
}

// ReviewRequest resolves a single request from the unified view.
type ReviewRequest struct {
	Status   string `json:"status" binding:"required"`
	Feedback string `json:"feedback"`
}

// ExportRequestsQuery selects rows and format for an export download.
type ExportRequestsQuery struct {
	Format string `form:"format"`
	ListRequestsQuery
}
