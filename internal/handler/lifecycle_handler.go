package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/service"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type lifecycleService interface {
	Get(ctx context.Context, kind string, id int64) (*models.Resource, error)
	Transition(ctx context.Context, actor service.Actor, req dto.TransitionRequest) (*dto.LifecycleResult, error)
	Archive(ctx context.Context, actor service.Actor, req dto.ArchiveRequest) (*dto.LifecycleResult, error)
	Restore(ctx context.Context, actor service.Actor, req dto.RestoreRequest) (*dto.LifecycleResult, error)
	PermanentDelete(ctx context.Context, actor service.Actor, req dto.DeleteRequest) (*dto.LifecycleResult, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// LifecycleHandler exposes the single-item lifecycle mutations.
type LifecycleHandler struct {
	ops     lifecycleService
	stats   statsInvalidator
	metrics *service.MetricsService
}

// NewLifecycleHandler constructs the handler. stats and metrics may be nil.
func NewLifecycleHandler(ops lifecycleService, stats statsInvalidator, metrics *service.MetricsService) *LifecycleHandler {
	return &LifecycleHandler{ops: ops, stats: stats, metrics: metrics}
}

func (h *LifecycleHandler) afterMutation(c *gin.Context, operation, kind string, err error) {
	h.metrics.ObserveLifecycleOp(operation, kind, err == nil)
	if err == nil && h.stats != nil {
		h.stats.InvalidateStats(c.Request.Context())
	}
}

// Get godoc
// @Summary Get a single resource
// @Description Load one resource of any kind through the registry
// @Tags Lifecycle
// @Produce json
// @Param type path string true "Resource kind"
// @Param id path int true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{type}/{id} [get]
func (h *LifecycleHandler) Get(c *gin.Context) {
	if h.ops == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource id"))
		return
	}
	res, err := h.ops.Get(c.Request.Context(), c.Param("type"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Transition godoc
// @Summary Update resource status
// @Description Move one resource to a new review status
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/status [put]
func (h *LifecycleHandler) Transition(c *gin.Context) {
	if h.ops == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	res, err := h.ops.Transition(c.Request.Context(), actor, req)
	h.afterMutation(c, "transition", req.Kind, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Archive godoc
// @Summary Archive a resource
// @Description Soft-delete one resource; class archival cascades to its materials
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param payload body dto.ArchiveRequest true "Archive payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/archive [post]
func (h *LifecycleHandler) Archive(c *gin.Context) {
	if h.ops == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid archive payload"))
		return
	}
	res, err := h.ops.Archive(c.Request.Context(), actor, req)
	h.afterMutation(c, "archive", req.Kind, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Restore godoc
// @Summary Restore an archived resource
// @Description Reactivate one archived resource; class restore cascades to its materials
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param payload body dto.RestoreRequest true "Restore payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/restore [post]
func (h *LifecycleHandler) Restore(c *gin.Context) {
	if h.ops == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid restore payload"))
		return
	}
	res, err := h.ops.Restore(c.Request.Context(), actor, req)
	h.afterMutation(c, "restore", req.Kind, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Permanently delete a resource
// @Description Remove one resource and its stored files for good
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param payload body dto.DeleteRequest true "Delete payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/delete [post]
func (h *LifecycleHandler) Delete(c *gin.Context) {
	if h.ops == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid delete payload"))
		return
	}
	res, err := h.ops.PermanentDelete(c.Request.Context(), actor, req)
	h.afterMutation(c, "delete", req.Kind, err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
