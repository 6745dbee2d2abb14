package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/models"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type auditService interface {
	Recent(ctx context.Context, limit int) ([]models.AccessLog, error)
}

// AuditHandler exposes the access log to administrators.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// Recent godoc
// @Summary Recent access log entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /audit/recent [get]
func (h *AuditHandler) Recent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "audit service not configured"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	entries, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
