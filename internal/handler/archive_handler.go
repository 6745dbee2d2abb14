package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type archiveService interface {
	List(ctx context.Context, q dto.ListArchiveQuery) (*dto.ListArchiveResponse, error)
	Stats(ctx context.Context) (*models.ArchiveStats, error)
}

// ArchiveHandler serves the archived-items browser.
type ArchiveHandler struct {
	service archiveService
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(svc archiveService) *ArchiveHandler {
	return &ArchiveHandler{service: svc}
}

// List godoc
// @Summary List archived items
// @Description Browse archived classes, materials and research papers
// @Tags Archive
// @Produce json
// @Param type query string false "Kind filter"
// @Param search query string false "Title or archiver search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /archive [get]
func (h *ArchiveHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "archive service not configured"))
		return
	}
	var q dto.ListArchiveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid archive filters"))
		return
	}
	res, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res.Items, &res.Pagination)
}

// Stats godoc
// @Summary Archive statistics
// @Description Archived counts by kind plus recent archival activity
// @Tags Archive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /archive/stats [get]
func (h *ArchiveHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "archive service not configured"))
		return
	}
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
