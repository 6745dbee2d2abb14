package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/service"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type bulkService interface {
	Apply(ctx context.Context, actor service.Actor, req dto.BulkRequest) (*dto.BulkResult, error)
}

// BulkHandler exposes the bulk operation coordinator.
type BulkHandler struct {
	service bulkService
	stats   statsInvalidator
	metrics *service.MetricsService
}

// NewBulkHandler constructs the handler. stats and metrics may be nil.
func NewBulkHandler(svc bulkService, stats statsInvalidator, metrics *service.MetricsService) *BulkHandler {
	return &BulkHandler{service: svc, stats: stats, metrics: metrics}
}

// Apply godoc
// @Summary Run a bulk operation
// @Description Apply approve, reject, archive, restore or delete across many items
// @Tags Bulk
// @Accept json
// @Produce json
// @Param payload body dto.BulkRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /resources/bulk [post]
func (h *BulkHandler) Apply(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "bulk service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk payload"))
		return
	}

	result, err := h.service.Apply(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveBulkItems(result.Operation, result.SuccessCount, len(result.Errors))
	if result.SuccessCount > 0 && h.stats != nil {
		h.stats.InvalidateStats(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, result, nil)
}
