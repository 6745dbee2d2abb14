package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/pkg/database"
)

// ResourceRepository performs descriptor-driven lifecycle mutations against
// the kind-specific tables. Column and table names come from the registry,
// never from caller input, so building SQL from them is safe.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// TransitionParams carries one status change.
type TransitionParams struct {
	ID       int64
	Status   models.ResourceStatus
	Feedback string
	ActorID  int64
}

// GetByID loads one resource through the descriptor's column mapping into
// the uniform Resource shape. Kinds lacking a column yield typed defaults.
func (r *ResourceRepository) GetByID(ctx context.Context, d registry.Descriptor, id int64) (*models.Resource, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(fmt.Sprintf("%s AS id, %s AS title, %s AS owner_id, %s AS created_at",
		d.IDColumn, d.TitleColumn, d.OwnerColumn, d.CreatedColumn))
	if d.HasStatus {
		b.WriteString(fmt.Sprintf(", %s AS status", d.StatusColumn))
	} else {
		b.WriteString(", '' AS status")
	}
	if d.HasActiveFlag {
		b.WriteString(", is_active")
	} else {
		b.WriteString(", TRUE AS is_active")
	}
	if d.HasArchiveMeta {
		b.WriteString(", archived_at, archived_by")
	} else {
		b.WriteString(", NULL::timestamptz AS archived_at, NULL::bigint AS archived_by")
	}
	if d.FeedbackColumn != "" {
		b.WriteString(fmt.Sprintf(", %s AS feedback", d.FeedbackColumn))
	} else {
		b.WriteString(", NULL AS feedback")
	}
	if d.HasFile() {
		b.WriteString(fmt.Sprintf(", %s AS file_path, %s AS file_size", d.FilePathColumn, d.FileSizeColumn))
	} else {
		b.WriteString(", NULL AS file_path, NULL::bigint AS file_size")
	}
	if d.ReviewerColumn != "" {
		b.WriteString(fmt.Sprintf(", %s AS reviewed_by, %s AS reviewed_at", d.ReviewerColumn, d.ReviewedAtColumn))
	} else {
		b.WriteString(", NULL::bigint AS reviewed_by, NULL::timestamptz AS reviewed_at")
	}
	b.WriteString(fmt.Sprintf(" FROM %s WHERE %s = $1", d.Table, d.IDColumn))

	var res models.Resource
	if err := r.db.GetContext(ctx, &res, b.String(), id); err != nil {
		return nil, err
	}
	res.Kind = d.Kind
	return &res, nil
}

// Transition updates the status row and appends the given notifications in
// one transaction. A vanished or concurrently archived row surfaces as
// sql.ErrNoRows and rolls everything back.
func (r *ResourceRepository) Transition(ctx context.Context, d registry.Descriptor, p TransitionParams, notifications []models.Notification) error {
	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sets := []string{fmt.Sprintf("%s = $1", d.StatusColumn)}
		args := []interface{}{string(p.Status)}

		if p.Feedback != "" && d.FeedbackColumn != "" {
			args = append(args, p.Feedback)
			sets = append(sets, fmt.Sprintf("%s = $%d", d.FeedbackColumn, len(args)))
		}
		if d.ReviewerColumn != "" && (d.StampReviewerAlways || p.Status == models.StatusApproved) {
			args = append(args, p.ActorID)
			sets = append(sets, fmt.Sprintf("%s = $%d", d.ReviewerColumn, len(args)))
			sets = append(sets, fmt.Sprintf("%s = NOW()", d.ReviewedAtColumn))
		}

		args = append(args, p.ID)
		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
			d.Table, strings.Join(sets, ", "), d.IDColumn, len(args))
		if d.HasActiveFlag {
			query += " AND is_active = TRUE"
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update %s status: %w", d.Kind, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("check %s status rows: %w", d.Kind, err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}

		for i := range notifications {
			if err := insertNotificationTx(ctx, tx, &notifications[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Archive soft-deletes one resource. The is_active guard makes the second
// of two racing archive calls observe zero rows and fail with sql.ErrNoRows.
func (r *ResourceRepository) Archive(ctx context.Context, d registry.Descriptor, id, actorID int64, reason string) error {
	sets := []string{"is_active = FALSE"}
	args := []interface{}{}
	if d.HasArchiveMeta {
		args = append(args, actorID)
		sets = append(sets, "archived_at = NOW()", fmt.Sprintf("archived_by = $%d", len(args)))
	}
	if reason != "" && d.FeedbackColumn != "" {
		args = append(args, reason)
		sets = append(sets, fmt.Sprintf("%s = $%d", d.FeedbackColumn, len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d AND is_active = TRUE",
		d.Table, strings.Join(sets, ", "), d.IDColumn, len(args))
	return r.execExpectingRow(ctx, query, args...)
}

// Restore reactivates an archived resource and clears the archive metadata.
func (r *ResourceRepository) Restore(ctx context.Context, d registry.Descriptor, id int64) error {
	sets := []string{"is_active = TRUE"}
	if d.HasArchiveMeta {
		sets = append(sets, "archived_at = NULL", "archived_by = NULL")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 AND is_active = FALSE",
		d.Table, strings.Join(sets, ", "), d.IDColumn)
	return r.execExpectingRow(ctx, query, id)
}

// Delete permanently removes one row. Backing files are the caller's job.
func (r *ResourceRepository) Delete(ctx context.Context, d registry.Descriptor, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", d.Table, d.IDColumn)
	return r.execExpectingRow(ctx, query, id)
}

// SetMaterialsActive flips the active flag on all learning materials of a
// class. Used by the archive/restore cascade; callers treat failures as
// non-fatal.
func (r *ResourceRepository) SetMaterialsActive(ctx context.Context, classID int64, active bool) (int64, error) {
	const query = `UPDATE learning_materials SET is_active = $2 WHERE class_id = $1 AND is_active <> $2`
	res, err := r.db.ExecContext(ctx, query, classID, active)
	if err != nil {
		return 0, fmt.Errorf("cascade materials active flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check cascade rows: %w", err)
	}
	return affected, nil
}

// ListMaterialsByClass returns a class's materials so their files can be
// removed before the rows are.
func (r *ResourceRepository) ListMaterialsByClass(ctx context.Context, classID int64) ([]models.LearningMaterial, error) {
	const query = `SELECT material_id, class_id, title, file_path, file_size, uploaded_by, created_at
	FROM learning_materials WHERE class_id = $1`
	var materials []models.LearningMaterial
	if err := r.db.SelectContext(ctx, &materials, query, classID); err != nil {
		return nil, fmt.Errorf("list class materials: %w", err)
	}
	return materials, nil
}

// DeleteClassWithMaterials removes a class and its material rows together.
// Material rows go first so no file reference outlives its owning class.
func (r *ResourceRepository) DeleteClassWithMaterials(ctx context.Context, classID int64) error {
	return database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM learning_materials WHERE class_id = $1`, classID); err != nil {
			return fmt.Errorf("delete class materials: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, classID)
		if err != nil {
			return fmt.Errorf("delete class: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("check class delete rows: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (r *ResourceRepository) execExpectingRow(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec lifecycle update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check lifecycle rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertNotificationTx(ctx context.Context, tx *sqlx.Tx, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
	VALUES (:id, :user_id, :title, :message, :type, :is_read, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
