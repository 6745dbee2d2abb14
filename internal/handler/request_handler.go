package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/internal/service"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type requestService interface {
	List(ctx context.Context, q dto.ListRequestsQuery) (*dto.ListRequestsResponse, error)
	Get(ctx context.Context, kind string, id int64) (*models.RequestItem, error)
	Stats(ctx context.Context) (*models.RequestStats, error)
	Departments(ctx context.Context) ([]string, error)
	Export(ctx context.Context, q dto.ExportRequestsQuery) (data []byte, contentType, filename string, err error)
	InvalidateStats(ctx context.Context)
}

type requestReviewer interface {
	Transition(ctx context.Context, actor service.Actor, req dto.TransitionRequest) (*dto.LifecycleResult, error)
}

type bulkApplier interface {
	Apply(ctx context.Context, actor service.Actor, req dto.BulkRequest) (*dto.BulkResult, error)
}

// RequestHandler serves the unified request queue built from the UNION of
// all pending-review sources.
type RequestHandler struct {
	service  requestService
	reviewer requestReviewer
	bulk     bulkApplier
	metrics  *service.MetricsService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(svc requestService, reviewer requestReviewer, bulk bulkApplier, metrics *service.MetricsService) *RequestHandler {
	return &RequestHandler{service: svc, reviewer: reviewer, bulk: bulk, metrics: metrics}
}

// List godoc
// @Summary List requests
// @Description Unified, filterable listing across all reviewable kinds
// @Tags Requests
// @Produce json
// @Param search query string false "Title or requester search"
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param department query string false "Department filter"
// @Param date_from query string false "Submitted on or after (YYYY-MM-DD)"
// @Param date_to query string false "Submitted on or before (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "request service not configured"))
		return
	}
	var q dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request filters"))
		return
	}
	res, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res.Requests, &res.Pagination)
}

// Get godoc
// @Summary Get one request
// @Description Load a single row from the unified request view
// @Tags Requests
// @Produce json
// @Param id path int true "Request ID"
// @Param type query string false "Kind to disambiguate colliding IDs"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "request service not configured"))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	item, err := h.service.Get(c.Request.Context(), c.Query("type"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Stats godoc
// @Summary Request statistics
// @Description Aggregated counts by status and priority plus today's approvals
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/stats [get]
func (h *RequestHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "request service not configured"))
		return
	}
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Departments godoc
// @Summary List departments
// @Description Distinct departments for the listing filter dropdown
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/departments [get]
func (h *RequestHandler) Departments(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "request service not configured"))
		return
	}
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// Export godoc
// @Summary Export requests
// @Description Download the filtered request listing as CSV or PDF
// @Tags Requests
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "request service not configured"))
		return
	}
	var q dto.ExportRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export filters"))
		return
	}
	data, contentType, filename, err := h.service.Export(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// Review godoc
// @Summary Review one request
// @Description Apply a review decision to a single item of any reviewable kind
// @Tags Requests
// @Accept json
// @Produce json
// @Param type path string true "Resource kind"
// @Param id path int true "Request ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /requests/{type}/{id}/review [put]
func (h *RequestHandler) Review(c *gin.Context) {
	if h.reviewer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request id"))
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}

	res, err := h.reviewer.Transition(c.Request.Context(), actor, dto.TransitionRequest{
		Kind:     c.Param("type"),
		ID:       id,
		Status:   req.Status,
		Feedback: req.Feedback,
	})
	h.metrics.ObserveLifecycleOp("review", c.Param("type"), err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.service.InvalidateStats(c.Request.Context())
	response.JSON(c, http.StatusOK, res, nil)
}

// BulkReview godoc
// @Summary Review many approval requests
// @Description Approve or reject a set of approval requests in one statement
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.BulkReviewRequest true "Bulk review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /requests/bulk-review [put]
func (h *RequestHandler) BulkReview(c *gin.Context) {
	if h.bulk == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "bulk service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk review payload"))
		return
	}

	var op string
	switch models.ResourceStatus(req.Status) {
	case models.StatusApproved:
		op = dto.BulkOpApprove
	case models.StatusRejected:
		op = dto.BulkOpReject
	default:
		response.Error(c, appErrors.ErrValidation.WithDetails("status must be approved or rejected"))
		return
	}

	items := make([]models.ResourceRef, len(req.IDs))
	for i, id := range req.IDs {
		items[i] = models.ResourceRef{Kind: registry.KindApprovalRequest, ID: id}
	}
	result, err := h.bulk.Apply(c.Request.Context(), actor, dto.BulkRequest{
		Operation: op,
		Items:     items,
		Feedback:  req.Feedback,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveBulkItems(result.Operation, result.SuccessCount, len(result.Errors))
	if result.SuccessCount > 0 {
		h.service.InvalidateStats(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, result, nil)
}
