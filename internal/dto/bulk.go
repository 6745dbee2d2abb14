package dto

import "github.com/mcabalar/acadrepo-api/internal/models"

// Bulk operations accepted by the coordinator.
const (
	BulkOpApprove = "approve"
	BulkOpReject  = "reject"
	BulkOpArchive = "archive"
	BulkOpRestore = "restore"
	BulkOpDelete  = "delete"
)

// BulkRequest applies one operation to a list of resource references.
type BulkRequest struct {
	Operation string               `json:"operation" binding:"required"`
	Items     []models.ResourceRef `json:"items" binding:"required"`
	Feedback  string               `json:"feedback"`
}

// BulkItemError records one failed item inside a bulk run.
type BulkItemError struct {
	Kind  string `json:"type"`
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// BulkResult summarises a bulk run. SuccessCount+len(Errors) == TotalCount.
type BulkResult struct {
	Operation    string          `json:"operation"`
	SuccessCount int             `json:"success_count"`
	TotalCount   int             `json:"total_count"`
	Errors       []BulkItemError `json:"errors"`
}

// BulkReviewRequest resolves a set of approval requests in one statement.
type BulkReviewRequest struct {
	IDs      []int64 `json:"ids" binding:"required,min=1"`
	Status   string  `json:"status" binding:"required"`
	Feedback string  `json:"feedback"`
}
