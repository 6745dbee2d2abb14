package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/internal/repository"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

// Actor identifies who performs a lifecycle operation.
type Actor struct {
	ID         int64
	Name       string
	Role       models.UserRole
	Department string
	IPAddress  string
	UserAgent  string
}

type resourceStore interface {
	GetByID(ctx context.Context, d registry.Descriptor, id int64) (*models.Resource, error)
	Transition(ctx context.Context, d registry.Descriptor, p repository.TransitionParams, notifications []models.Notification) error
	Archive(ctx context.Context, d registry.Descriptor, id, actorID int64, reason string) error
	Restore(ctx context.Context, d registry.Descriptor, id int64) error
	Delete(ctx context.Context, d registry.Descriptor, id int64) error
	SetMaterialsActive(ctx context.Context, classID int64, active bool) (int64, error)
	ListMaterialsByClass(ctx context.Context, classID int64) ([]models.LearningMaterial, error)
	DeleteClassWithMaterials(ctx context.Context, classID int64) error
}

type fileRemover interface {
	Delete(path string) error
}

// LifecycleService moves resources through the shared review lifecycle:
// status transitions, archive/restore with cascades, and permanent deletes.
type LifecycleService struct {
	resources resourceStore
	files     fileRemover
	effects   *EffectRecorder
	logger    *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(resources resourceStore, files fileRemover, effects *EffectRecorder, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{resources: resources, files: files, effects: effects, logger: logger}
}

func (s *LifecycleService) authorize(actor Actor) error {
	if !actor.Role.CanModerate() {
		return appErrors.ErrForbidden
	}
	return nil
}

// Get loads one resource through its kind descriptor.
func (s *LifecycleService) Get(ctx context.Context, kind string, id int64) (*models.Resource, error) {
	d, err := registry.Resolve(kind)
	if err != nil {
		return nil, err
	}
	res, err := s.resources.GetByID(ctx, d, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, id, err)
	}
	return res, nil
}

// Transition sets a resource's status, stamping reviewer metadata and
// fanning out notifications inside the same transaction. Archived rows are
// rejected before the database is touched; a concurrent archive between the
// check and the update surfaces as TransitionFailed.
func (s *LifecycleService) Transition(ctx context.Context, actor Actor, req dto.TransitionRequest) (*dto.LifecycleResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	d, err := registry.Resolve(req.Kind)
	if err != nil {
		return nil, err
	}
	if !d.HasStatus {
		return nil, appErrors.ErrInvalidTransition.WithDetails(d.Kind + " has no review status")
	}
	if !models.ValidStatus(req.Status) {
		return nil, appErrors.ErrInvalidTransition.WithDetails("status: " + req.Status)
	}
	target := models.ResourceStatus(req.Status)

	res, err := s.resources.GetByID(ctx, d, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, req.ID, err)
	}
	if d.HasActiveFlag && !res.Active {
		return nil, appErrors.ErrResourceArchived
	}

	notifications := transitionNotifications(res, target, req.Feedback, actor)
	err = s.resources.Transition(ctx, d, repository.TransitionParams{
		ID:       req.ID,
		Status:   target,
		Feedback: req.Feedback,
		ActorID:  actor.ID,
	}, notifications)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTransitionFailed
		}
		s.logger.Error("status transition failed",
			zap.String("kind", d.Kind),
			zap.Int64("id", req.ID),
			zap.String("target", req.Status),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrTransitionFailed.Code, appErrors.ErrTransitionFailed.Status, appErrors.ErrTransitionFailed.Message)
	}

	s.effects.Audit(ctx, models.AccessLog{
		UserID:    &actor.ID,
		Action:    models.ActionTransition,
		Detail:    fmt.Sprintf("%s #%d -> %s", d.Kind, req.ID, target),
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
	return &dto.LifecycleResult{Kind: d.Kind, ID: res.ID, Title: res.Title, Status: string(target)}, nil
}

func transitionNotifications(res *models.Resource, target models.ResourceStatus, feedback string, actor Actor) []models.Notification {
	ownerType := models.NotificationInfo
	switch target {
	case models.StatusApproved:
		ownerType = models.NotificationSuccess
	case models.StatusRejected:
		ownerType = models.NotificationWarning
	}
	message := fmt.Sprintf("Your submission %q is now %s.", res.Title, target)
	if feedback != "" {
		message += " Feedback: " + feedback
	}
	return []models.Notification{
		{
			UserID:  res.OwnerID,
			Title:   "Submission status updated",
			Message: message,
			Type:    ownerType,
		},
		{
			UserID:  actor.ID,
			Title:   "Review recorded",
			Message: fmt.Sprintf("You set %q to %s.", res.Title, target),
			Type:    models.NotificationSystem,
		},
	}
}

// Archive soft-deletes a resource. Stored files survive archival; only a
// permanent delete removes them. Class archival cascades to the class's
// learning materials best-effort.
func (s *LifecycleService) Archive(ctx context.Context, actor Actor, req dto.ArchiveRequest) (*dto.LifecycleResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	d, err := registry.Resolve(req.Kind)
	if err != nil {
		return nil, err
	}
	if !d.HasActiveFlag {
		return nil, appErrors.ErrValidation.WithDetails(d.Kind + " does not support archival")
	}

	res, err := s.resources.GetByID(ctx, d, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, req.ID, err)
	}
	if !res.Active {
		return nil, appErrors.ErrResourceArchived
	}

	if err := s.resources.Archive(ctx, d, req.ID, actor.ID, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// lost the race against another archive call
			return nil, appErrors.ErrResourceArchived
		}
		return nil, fmt.Errorf("archive %s %d: %w", d.Kind, req.ID, err)
	}

	if d.CascadesToMaterials {
		if affected, cascadeErr := s.resources.SetMaterialsActive(ctx, req.ID, false); cascadeErr != nil {
			s.logger.Warn("class archive cascade failed",
				zap.Int64("class_id", req.ID),
				zap.Error(cascadeErr))
		} else {
			s.logger.Info("class archive cascaded",
				zap.Int64("class_id", req.ID),
				zap.Int64("materials", affected))
		}
	}

	s.recordArchiveEffects(ctx, actor, d, res, models.ActionArchive, req.Reason)
	return &dto.LifecycleResult{Kind: d.Kind, ID: res.ID, Title: res.Title}, nil
}

// Restore reactivates an archived resource, cascading to class materials.
func (s *LifecycleService) Restore(ctx context.Context, actor Actor, req dto.RestoreRequest) (*dto.LifecycleResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	d, err := registry.Resolve(req.Kind)
	if err != nil {
		return nil, err
	}
	if !d.HasActiveFlag {
		return nil, appErrors.ErrValidation.WithDetails(d.Kind + " does not support archival")
	}

	res, err := s.resources.GetByID(ctx, d, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, req.ID, err)
	}
	if res.Active {
		return nil, appErrors.ErrResourceNotArchived
	}

	if err := s.resources.Restore(ctx, d, req.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotArchived
		}
		return nil, fmt.Errorf("restore %s %d: %w", d.Kind, req.ID, err)
	}

	if d.CascadesToMaterials {
		if _, cascadeErr := s.resources.SetMaterialsActive(ctx, req.ID, true); cascadeErr != nil {
			s.logger.Warn("class restore cascade failed",
				zap.Int64("class_id", req.ID),
				zap.Error(cascadeErr))
		}
	}

	s.recordArchiveEffects(ctx, actor, d, res, models.ActionRestore, "")
	return &dto.LifecycleResult{Kind: d.Kind, ID: res.ID, Title: res.Title}, nil
}

// PermanentDelete removes the row and any backing files. File removal is
// best-effort first so a vanished file never strands the database row; a
// failed row delete reports DeleteFailed and the file may already be gone,
// which callers accept as the documented partial-failure mode.
func (s *LifecycleService) PermanentDelete(ctx context.Context, actor Actor, req dto.DeleteRequest) (*dto.LifecycleResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	d, err := registry.Resolve(req.Kind)
	if err != nil {
		return nil, err
	}

	res, err := s.resources.GetByID(ctx, d, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, req.ID, err)
	}

	if d.CascadesToMaterials {
		materials, listErr := s.resources.ListMaterialsByClass(ctx, req.ID)
		if listErr != nil {
			return nil, fmt.Errorf("enumerate class materials: %w", listErr)
		}
		for _, m := range materials {
			s.removeFile(m.FilePath)
		}
		if err := s.resources.DeleteClassWithMaterials(ctx, req.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrDeleteFailed
			}
			return nil, fmt.Errorf("delete class %d: %w", req.ID, err)
		}
	} else {
		s.removeFile(res.FilePath)
		if err := s.resources.Delete(ctx, d, req.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrDeleteFailed
			}
			return nil, fmt.Errorf("delete %s %d: %w", d.Kind, req.ID, err)
		}
	}

	s.recordArchiveEffects(ctx, actor, d, res, models.ActionPermanentDelete, "")
	return &dto.LifecycleResult{Kind: d.Kind, ID: res.ID, Title: res.Title}, nil
}

func (s *LifecycleService) removeFile(path *string) {
	if path == nil || *path == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(*path); err != nil {
		s.logger.Warn("file removal failed", zap.String("path", *path), zap.Error(err))
	}
}

func (s *LifecycleService) recordArchiveEffects(ctx context.Context, actor Actor, d registry.Descriptor, res *models.Resource, action, reason string) {
	detail := fmt.Sprintf("%s #%d (%s)", d.Kind, res.ID, res.Title)
	if reason != "" {
		detail += " reason: " + reason
	}
	s.effects.Audit(ctx, models.AccessLog{
		UserID:    &actor.ID,
		Action:    action,
		Detail:    detail,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})

	verb := map[string]string{
		models.ActionArchive:         "archived",
		models.ActionRestore:         "restored",
		models.ActionPermanentDelete: "permanently deleted",
	}[action]
	if verb == "" || res.OwnerID == 0 {
		return
	}
	s.effects.Notify(ctx, models.Notification{
		UserID:  res.OwnerID,
		Title:   "Submission " + verb,
		Message: fmt.Sprintf("Your submission %q was %s.", res.Title, verb),
		Type:    models.NotificationSystem,
	})
}
