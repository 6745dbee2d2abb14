package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcabalar/acadrepo-api/internal/models"
)

// AuditRepository appends accesslog rows. Callers treat failures as
// non-fatal and only log them.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends one accesslog entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO accesslog (id, user_id, action, detail, ip_address, user_agent, created_at)
	VALUES (:id, :user_id, :action, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create accesslog entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest accesslog entries for the admin view.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AccessLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, user_id, action, detail, ip_address, user_agent, created_at
	FROM accesslog ORDER BY created_at DESC LIMIT %d`, limit)

	var entries []models.AccessLog
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list accesslog entries: %w", err)
	}
	return entries, nil
}
