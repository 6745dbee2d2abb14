package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type lifecycleOps interface {
	Transition(ctx context.Context, actor Actor, req dto.TransitionRequest) (*dto.LifecycleResult, error)
	Archive(ctx context.Context, actor Actor, req dto.ArchiveRequest) (*dto.LifecycleResult, error)
	Restore(ctx context.Context, actor Actor, req dto.RestoreRequest) (*dto.LifecycleResult, error)
	PermanentDelete(ctx context.Context, actor Actor, req dto.DeleteRequest) (*dto.LifecycleResult, error)
}

type bulkReviewStore interface {
	BulkReview(ctx context.Context, ids []int64, status models.ResourceStatus, feedback string, reviewerID int64, reviewedAt time.Time) ([]int64, error)
}

// BulkService applies one operation across many resource references with
// per-item failure isolation. Each item commits independently; the result
// reports which ones failed and why.
type BulkService struct {
	lifecycle lifecycleOps
	requests  bulkReviewStore
	effects   *EffectRecorder
	logger    *zap.Logger
}

// NewBulkService constructs the coordinator.
func NewBulkService(lifecycle lifecycleOps, requests bulkReviewStore, effects *EffectRecorder, logger *zap.Logger) *BulkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{lifecycle: lifecycle, requests: requests, effects: effects, logger: logger}
}

var bulkStatusByOp = map[string]models.ResourceStatus{
	dto.BulkOpApprove: models.StatusApproved,
	dto.BulkOpReject:  models.StatusRejected,
}

func validBulkOp(op string) bool {
	switch op {
	case dto.BulkOpApprove, dto.BulkOpReject, dto.BulkOpArchive, dto.BulkOpRestore, dto.BulkOpDelete:
		return true
	}
	return false
}

// Apply runs one bulk operation. The call itself succeeds whenever the
// request was well-formed; callers inspect Errors for partial failure.
// Approval requests under approve/reject/delete take a single batched
// UPDATE instead of the per-item loop.
func (s *BulkService) Apply(ctx context.Context, actor Actor, req dto.BulkRequest) (*dto.BulkResult, error) {
	if len(req.Items) == 0 || !validBulkOp(req.Operation) {
		return nil, appErrors.ErrInvalidBulkRequest
	}

	result := &dto.BulkResult{Operation: req.Operation, TotalCount: len(req.Items)}

	batched, loop := s.partition(req.Operation, req.Items)
	if len(batched) > 0 {
		s.applyBatched(ctx, actor, req, batched, result)
	}
	for _, item := range loop {
		if err := s.applyOne(ctx, actor, req, item); err != nil {
			result.Errors = append(result.Errors, dto.BulkItemError{
				Kind:  item.Kind,
				ID:    item.ID,
				Error: appErrors.FromError(err).Message,
			})
			continue
		}
		result.SuccessCount++
	}

	s.effects.Audit(ctx, models.AccessLog{
		UserID:    &actor.ID,
		Action:    models.ActionBulkOperation,
		Detail:    fmt.Sprintf("%s: %d/%d succeeded", req.Operation, result.SuccessCount, result.TotalCount),
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
	return result, nil
}

// partition splits approval requests eligible for the batched path from
// everything that goes through the per-item loop.
func (s *BulkService) partition(op string, items []models.ResourceRef) (batched, loop []models.ResourceRef) {
	fastPath := op == dto.BulkOpApprove || op == dto.BulkOpReject || op == dto.BulkOpDelete
	for _, item := range items {
		d, err := registry.Resolve(item.Kind)
		if err == nil && d.Kind == registry.KindApprovalRequest && fastPath {
			batched = append(batched, item)
			continue
		}
		loop = append(loop, item)
	}
	return batched, loop
}

func (s *BulkService) applyBatched(ctx context.Context, actor Actor, req dto.BulkRequest, items []models.ResourceRef, result *dto.BulkResult) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	status, ok := bulkStatusByOp[req.Operation]
	if !ok {
		// delete maps to a rejection; approval requests have no archive path
		status = models.StatusRejected
	}

	updatedIDs, err := s.requests.BulkReview(ctx, ids, status, req.Feedback, actor.ID, time.Now().UTC())
	if err != nil {
		s.logger.Warn("batched request update failed",
			zap.String("operation", req.Operation),
			zap.Int("ids", len(ids)),
			zap.Error(err))
		for _, item := range items {
			result.Errors = append(result.Errors, dto.BulkItemError{
				Kind:  item.Kind,
				ID:    item.ID,
				Error: appErrors.FromError(err).Message,
			})
		}
		return
	}

	updated := make(map[int64]struct{}, len(updatedIDs))
	for _, id := range updatedIDs {
		updated[id] = struct{}{}
	}
	for _, item := range items {
		if _, ok := updated[item.ID]; ok {
			result.SuccessCount++
			continue
		}
		result.Errors = append(result.Errors, dto.BulkItemError{
			Kind:  item.Kind,
			ID:    item.ID,
			Error: "request not found",
		})
	}
}

func (s *BulkService) applyOne(ctx context.Context, actor Actor, req dto.BulkRequest, item models.ResourceRef) error {
	switch req.Operation {
	case dto.BulkOpApprove, dto.BulkOpReject:
		_, err := s.lifecycle.Transition(ctx, actor, dto.TransitionRequest{
			Kind:     item.Kind,
			ID:       item.ID,
			Status:   string(bulkStatusByOp[req.Operation]),
			Feedback: req.Feedback,
		})
		return err
	case dto.BulkOpArchive:
		_, err := s.lifecycle.Archive(ctx, actor, dto.ArchiveRequest{Kind: item.Kind, ID: item.ID, Reason: req.Feedback})
		return err
	case dto.BulkOpRestore:
		_, err := s.lifecycle.Restore(ctx, actor, dto.RestoreRequest{Kind: item.Kind, ID: item.ID})
		return err
	case dto.BulkOpDelete:
		_, err := s.lifecycle.PermanentDelete(ctx, actor, dto.DeleteRequest{Kind: item.Kind, ID: item.ID})
		return err
	}
	return appErrors.ErrInvalidBulkRequest
}
