package service

import (
	"context"

	"github.com/mcabalar/acadrepo-api/internal/models"
)

type auditReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error)
}

// AuditService exposes the accesslog trail to administrators.
type AuditService struct {
	audit auditReader
}

// NewAuditService constructs the service.
func NewAuditService(audit auditReader) *AuditService {
	return &AuditService{audit: audit}
}

// Recent returns the newest accesslog entries.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AccessLog, error) {
	return s.audit.ListRecent(ctx, limit)
}
