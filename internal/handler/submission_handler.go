package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/service"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/response"
)

type submissionService interface {
	SubmitResearch(ctx context.Context, actor service.Actor, req dto.SubmitResearchRequest, up *service.Upload) (*dto.SubmissionResult, error)
	SubmitMaterial(ctx context.Context, actor service.Actor, req dto.SubmitMaterialRequest, up *service.Upload) (*dto.SubmissionResult, error)
	SubmitLearningMaterial(ctx context.Context, actor service.Actor, req dto.SubmitLearningMaterialRequest, up *service.Upload) (*dto.SubmissionResult, error)
	CreateClass(ctx context.Context, actor service.Actor, req dto.CreateClassRequest) (*models.Class, error)
}

// SubmissionHandler accepts new resources into the lifecycle.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(svc submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// uploadFromForm opens the multipart file and wraps it as an upload stream.
// The returned closer is nil when the form carries no file.
func uploadFromForm(c *gin.Context) (*service.Upload, multipart.File, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return &service.Upload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   src,
	}, src, nil
}

// SubmitResearch godoc
// @Summary Submit a research paper
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param abstract formData string false "Abstract"
// @Param authors formData string false "Authors"
// @Param category formData string false "Category"
// @Param academic_year formData string false "Academic year"
// @Param file formData file true "Paper document"
// @Success 201 {object} response.Envelope
// @Router /submissions/research [post]
func (h *SubmissionHandler) SubmitResearch(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submission service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitResearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid research payload"))
		return
	}
	upload, src, err := uploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close() //nolint:errcheck

	res, err := h.service.SubmitResearch(c.Request.Context(), actor, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// SubmitMaterial godoc
// @Summary Submit a material
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param course_id formData int false "Course reference"
// @Param file formData file true "Material document"
// @Success 201 {object} response.Envelope
// @Router /submissions/materials [post]
func (h *SubmissionHandler) SubmitMaterial(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submission service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitMaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid material payload"))
		return
	}
	upload, src, err := uploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close() //nolint:errcheck

	res, err := h.service.SubmitMaterial(c.Request.Context(), actor, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// SubmitLearningMaterial godoc
// @Summary Attach a learning material to a class
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param class_id formData int true "Class ID"
// @Param title formData string true "Title"
// @Param file formData file true "Material document"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/learning-materials [post]
func (h *SubmissionHandler) SubmitLearningMaterial(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submission service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitLearningMaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid learning material payload"))
		return
	}
	upload, src, err := uploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close() //nolint:errcheck

	res, err := h.service.SubmitLearningMaterial(c.Request.Context(), actor, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// CreateClass godoc
// @Summary Create a class
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *SubmissionHandler) CreateClass(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "submission service not configured"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class payload"))
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, class, nil)
}
