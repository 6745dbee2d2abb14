package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/pkg/jobs"
)

type notificationSink interface {
	Create(ctx context.Context, n *models.Notification) error
}

type auditSink interface {
	Create(ctx context.Context, entry *models.AccessLog) error
}

type effectQueue interface {
	Enqueue(job jobs.Job) error
}

// Job types dispatched through the effect queue.
const (
	EffectJobNotification = "notification"
	EffectJobAccessLog    = "accesslog"
)

// EffectRecorder fans out the side effects of lifecycle operations:
// notifications and accesslog entries. Every write is best-effort; a
// failure is logged and swallowed so the primary mutation stands.
// With a queue attached, writes move off the request path entirely.
type EffectRecorder struct {
	notifications notificationSink
	audit         auditSink
	queue         effectQueue
	logger        *zap.Logger
}

// NewEffectRecorder constructs the recorder. Nil sinks disable that effect.
func NewEffectRecorder(notifications notificationSink, audit auditSink, logger *zap.Logger) *EffectRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EffectRecorder{notifications: notifications, audit: audit, logger: logger}
}

// UseQueue routes effect writes through q. A failed enqueue falls back to
// the inline write so effects are never silently dropped on a full queue.
func (r *EffectRecorder) UseQueue(q effectQueue) {
	r.queue = q
}

// HandleEffect performs one queued effect write. Wire it as the queue's
// handler; returned errors trigger the queue's retry policy.
func (r *EffectRecorder) HandleEffect(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case EffectJobNotification:
		n, ok := job.Payload.(*models.Notification)
		if !ok {
			return fmt.Errorf("effect job %s: unexpected payload %T", job.ID, job.Payload)
		}
		if r.notifications == nil {
			return nil
		}
		return r.notifications.Create(ctx, n)
	case EffectJobAccessLog:
		entry, ok := job.Payload.(*models.AccessLog)
		if !ok {
			return fmt.Errorf("effect job %s: unexpected payload %T", job.ID, job.Payload)
		}
		if r.audit == nil {
			return nil
		}
		return r.audit.Create(ctx, entry)
	}
	return fmt.Errorf("effect job %s: unknown type %q", job.ID, job.Type)
}

// Notify appends one notification, logging on failure.
func (r *EffectRecorder) Notify(ctx context.Context, n models.Notification) {
	if r == nil || r.notifications == nil {
		return
	}
	if r.enqueue(EffectJobNotification, &n) {
		return
	}
	if err := r.notifications.Create(ctx, &n); err != nil {
		r.logger.Warn("notification write failed",
			zap.Int64("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
	}
}

// Audit appends one accesslog entry, logging on failure.
func (r *EffectRecorder) Audit(ctx context.Context, entry models.AccessLog) {
	if r == nil || r.audit == nil {
		return
	}
	if r.enqueue(EffectJobAccessLog, &entry) {
		return
	}
	if err := r.audit.Create(ctx, &entry); err != nil {
		r.logger.Warn("accesslog write failed",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

func (r *EffectRecorder) enqueue(jobType string, payload interface{}) bool {
	if r.queue == nil {
		return false
	}
	err := r.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload})
	if err != nil {
		r.logger.Warn("effect enqueue failed, writing inline",
			zap.String("type", jobType),
			zap.Error(err))
		return false
	}
	return true
}
