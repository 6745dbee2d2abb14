package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/internal/repository"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type submissionStore interface {
	CreateResearch(ctx context.Context, s repository.ResearchSubmission) (int64, error)
	CreateMaterial(ctx context.Context, s repository.MaterialSubmission) (int64, error)
	CreateLearningMaterial(ctx context.Context, s repository.LearningMaterialSubmission) (int64, error)
	CreateClass(ctx context.Context, c *models.Class) (int64, error)
	GetClass(ctx context.Context, id int64) (*models.Class, error)
}

type fileSaver interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// Upload describes an incoming file stream.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// SubmissionService creates new resources. Every submission enters the
// lifecycle as pending and active.
type SubmissionService struct {
	store   submissionStore
	files   fileSaver
	effects *EffectRecorder
	logger  *zap.Logger
}

// NewSubmissionService constructs the service.
func NewSubmissionService(store submissionStore, files fileSaver, effects *EffectRecorder, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{store: store, files: files, effects: effects, logger: logger}
}

func (s *SubmissionService) storeUpload(prefix string, up *Upload) (string, error) {
	if up == nil || up.Reader == nil {
		return "", nil
	}
	ext := filepath.Ext(up.Filename)
	name := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), strings.ToLower(ext))
	path, err := s.files.SaveStream(name, up.Reader)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

// SubmitResearch stores the uploaded paper and creates its pending row.
func (s *SubmissionService) SubmitResearch(ctx context.Context, actor Actor, req dto.SubmitResearchRequest, up *Upload) (*dto.SubmissionResult, error) {
	path, err := s.storeUpload("research", up)
	if err != nil {
		return nil, err
	}
	var size int64
	if up != nil {
		size = up.Size
	}
	id, err := s.store.CreateResearch(ctx, repository.ResearchSubmission{
		Title:        req.Title,
		Abstract:     req.Abstract,
		Authors:      req.Authors,
		Category:     req.Category,
		AcademicYear: req.AcademicYear,
		SubmittedBy:  actor.ID,
		FilePath:     path,
		FileSize:     size,
	})
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, actor, registry.KindResearch, id, req.Title)
	return &dto.SubmissionResult{
		Kind:     registry.KindResearch,
		ID:       id,
		Title:    req.Title,
		Status:   string(models.StatusPending),
		FilePath: path,
	}, nil
}

// SubmitMaterial stores the uploaded file and creates a pending material.
func (s *SubmissionService) SubmitMaterial(ctx context.Context, actor Actor, req dto.SubmitMaterialRequest, up *Upload) (*dto.SubmissionResult, error) {
	path, err := s.storeUpload("materials", up)
	if err != nil {
		return nil, err
	}
	var size int64
	if up != nil {
		size = up.Size
	}
	id, err := s.store.CreateMaterial(ctx, repository.MaterialSubmission{
		Title:       req.Title,
		Description: req.Description,
		CourseID:    req.CourseID,
		UploadedBy:  actor.ID,
		FilePath:    path,
		FileSize:    size,
	})
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, actor, registry.KindMaterial, id, req.Title)
	return &dto.SubmissionResult{
		Kind:     registry.KindMaterial,
		ID:       id,
		Title:    req.Title,
		Status:   string(models.StatusPending),
		FilePath: path,
	}, nil
}

// SubmitLearningMaterial attaches an uploaded file to a live class.
func (s *SubmissionService) SubmitLearningMaterial(ctx context.Context, actor Actor, req dto.SubmitLearningMaterialRequest, up *Upload) (*dto.SubmissionResult, error) {
	class, err := s.store.GetClass(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.WithDetails(fmt.Sprintf("class %d", req.ClassID))
		}
		return nil, fmt.Errorf("load class %d: %w", req.ClassID, err)
	}
	if !class.Active {
		return nil, appErrors.ErrResourceArchived.WithDetails("class is archived")
	}

	path, err := s.storeUpload("learning_materials", up)
	if err != nil {
		return nil, err
	}
	var size int64
	if up != nil {
		size = up.Size
	}
	id, err := s.store.CreateLearningMaterial(ctx, repository.LearningMaterialSubmission{
		ClassID:    req.ClassID,
		Title:      req.Title,
		UploadedBy: actor.ID,
		FilePath:   path,
		FileSize:   size,
	})
	if err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, actor, registry.KindLearningMaterial, id, req.Title)
	return &dto.SubmissionResult{
		Kind:     registry.KindLearningMaterial,
		ID:       id,
		Title:    req.Title,
		Status:   string(models.StatusPending),
		FilePath: path,
	}, nil
}

// CreateClass registers a new course offering.
func (s *SubmissionService) CreateClass(ctx context.Context, actor Actor, req dto.CreateClassRequest) (*models.Class, error) {
	class := &models.Class{
		SubjectName: req.SubjectName,
		Instructor:  req.Instructor,
		Department:  req.Department,
		Schedule:    req.Schedule,
		Active:      true,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.store.CreateClass(ctx, class); err != nil {
		return nil, err
	}
	s.recordSubmission(ctx, actor, registry.KindClass, class.ID, class.SubjectName)
	return class, nil
}

func (s *SubmissionService) recordSubmission(ctx context.Context, actor Actor, kind string, id int64, title string) {
	s.effects.Audit(ctx, models.AccessLog{
		UserID:    &actor.ID,
		Action:    "submit_" + kind,
		Detail:    fmt.Sprintf("%s #%d (%s)", kind, id, title),
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})

	// classes go live immediately, only reviewed uploads get the notice
	if kind == registry.KindClass {
		return
	}
	s.effects.Notify(ctx, models.Notification{
		UserID:  actor.ID,
		Title:   "Upload received",
		Message: fmt.Sprintf("%q was uploaded and is pending review.", title),
		Type:    models.NotificationInfo,
	})
}
