package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/service"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type fileService interface {
	DownloadToken(ctx context.Context, kind string, id int64) (*dto.DownloadTokenResponse, error)
	Download(ctx context.Context, token string) (*service.FileDownload, error)
}

// FileHandler serves stored resource files through signed tokens.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(svc fileService) *FileHandler {
	return &FileHandler{service: svc}
}

// DownloadToken godoc
// @Summary Issue a download token
// @Description Returns a short-lived signed token for the resource's stored file
// @Tags Lifecycle
// @Produce json
// @Param type path string true "Resource kind"
// @Param id path int true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{type}/{id}/download-url [get]
func (h *FileHandler) DownloadToken(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "file service not configured"))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource id"))
		return
	}
	res, err := h.service.DownloadToken(c.Request.Context(), c.Param("type"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download a stored file via signed token
// @Tags Lifecycle
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /resources/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "file service not configured"))
		return
	}
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, "application/octet-stream", result.File, nil)
}
