package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcabalar/acadrepo-api/internal/models"
)

// unifiedRequestsSQL projects the four kind-specific tables into one
// logical collection. This UNION is the only place the kinds are treated
// uniformly; the mutation path never touches it.
const unifiedRequestsSQL = `
	SELECT r.research_id AS request_id,
	       'research' AS request_type,
	       r.research_id AS resource_id,
	       r.title,
	       SUBSTRING(r.abstract, 1, 200) AS description,
	       r.submitted_by,
	       u.name AS requester_name,
	       u.department AS department_name,
	       r.status,
	       'medium' AS priority,
	       r.research_type AS category,
	       r.submission_date AS created_at,
	       r.approved_at AS reviewed_at,
	       r.approved_by AS reviewed_by,
	       r.rejection_reason AS admin_feedback,
	       r.file_path
	FROM research_papers r
	LEFT JOIN users u ON r.submitted_by = u.user_id
	WHERE r.status IN ('pending', 'under_review', 'approved', 'rejected') AND r.is_active = TRUE
	UNION ALL
	SELECT m.material_id,
	       'learning_material',
	       m.material_id,
	       m.title,
	       SUBSTRING(m.description, 1, 200),
	       m.uploaded_by,
	       u.name,
	       u.department,
	       m.status,
	       'medium',
	       m.material_type,
	       m.created_at,
	       m.approved_at,
	       m.approved_by,
	       m.rejection_reason,
	       m.file_path
	FROM learning_materials m
	LEFT JOIN users u ON m.uploaded_by = u.user_id
	WHERE m.status IN ('pending', 'approved', 'rejected') AND m.is_active = TRUE
	UNION ALL
	SELECT mat.material_id,
	       'material',
	       mat.material_id,
	       mat.title,
	       SUBSTRING(mat.description, 1, 200),
	       mat.uploaded_by,
	       u.name,
	       u.department,
	       mat.status,
	       'medium',
	       'Material',
	       mat.upload_date,
	       mat.approved_at,
	       mat.approved_by,
	       mat.rejection_reason,
	       mat.file_path
	FROM materials mat
	LEFT JOIN users u ON mat.uploaded_by = u.user_id
	WHERE mat.status IN ('pending', 'approved', 'rejected') AND mat.is_active = TRUE
	UNION ALL
	SELECT ar.request_id,
	       'approval_request',
	       COALESCE(ar.resource_id, ar.request_id),
	       CONCAT('Request: ', ar.request_type),
	       ar.description,
	       ar.submitted_by,
	       u.name,
	       u.department,
	       ar.status,
	       ar.priority,
	       ar.request_type,
	       ar.submitted_at,
	       ar.reviewed_at,
	       ar.reviewed_by,
	       ar.admin_feedback,
	       NULL
	FROM approval_requests ar
	LEFT JOIN users u ON ar.submitted_by = u.user_id
	WHERE ar.status IN ('pending', 'under_review', 'approved', 'rejected')`

// RequestRepository is the read side of the lifecycle engine: the unified
// UNION view, its aggregates, and the approval-request fast paths.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func buildRequestFilter(filter models.RequestFilter) (string, []interface{}) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR requester_name ILIKE $%d)", len(args)-1, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department_name = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("created_at::date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("created_at::date <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of the unified view ordered newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestItem, error) {
	where, args := buildRequestFilter(filter)
	query := fmt.Sprintf("SELECT * FROM (%s) AS all_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		unifiedRequestsSQL, where, filter.PageSize, (filter.Page-1)*filter.PageSize)

	items := make([]models.RequestItem, 0, filter.PageSize)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return items, nil
}

// Count returns the unified view's row count under the same filter as List.
func (r *RequestRepository) Count(ctx context.Context, filter models.RequestFilter) (int, error) {
	where, args := buildRequestFilter(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS all_requests%s", unifiedRequestsSQL, where)

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return total, nil
}

// GetByID locates one item in the unified view by its per-kind id. The kind
// filter narrows the probe when the caller knows it.
func (r *RequestRepository) GetByID(ctx context.Context, kind string, id int64) (*models.RequestItem, error) {
	conditions := []string{"request_id = $1"}
	args := []interface{}{id}
	if kind != "" {
		args = append(args, kind)
		conditions = append(conditions, "request_type = $2")
	}
	query := fmt.Sprintf("SELECT * FROM (%s) AS all_requests WHERE %s LIMIT 1",
		unifiedRequestsSQL, strings.Join(conditions, " AND "))

	var item models.RequestItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		return nil, err
	}
	return &item, nil
}

// Stats aggregates status and priority counts across the four tables plus
// today's approvals. The content kinds report a fixed medium priority.
func (r *RequestRepository) Stats(ctx context.Context) (*models.RequestStats, error) {
	stats := &models.RequestStats{
		ByStatus: map[string]int{
			"pending": 0, "under_review": 0, "approved": 0, "rejected": 0,
		},
		ByPriority: map[string]int{
			"urgent": 0, "high": 0, "medium": 0, "low": 0,
		},
	}

	const statusSQL = `SELECT status, COUNT(*) AS count FROM (
		SELECT status FROM research_papers WHERE status IN ('pending', 'under_review', 'approved', 'rejected') AND is_active = TRUE
		UNION ALL
		SELECT status FROM learning_materials WHERE status IN ('pending', 'approved', 'rejected') AND is_active = TRUE
		UNION ALL
		SELECT status FROM materials WHERE status IN ('pending', 'approved', 'rejected') AND is_active = TRUE
		UNION ALL
		SELECT status FROM approval_requests WHERE status IN ('pending', 'under_review', 'approved', 'rejected')
	) AS all_statuses GROUP BY status`
	if err := r.countInto(ctx, statusSQL, stats.ByStatus); err != nil {
		return nil, fmt.Errorf("request status counts: %w", err)
	}

	const prioritySQL = `SELECT priority, COUNT(*) AS count FROM (
		SELECT 'medium' AS priority FROM research_papers WHERE status IN ('pending', 'under_review') AND is_active = TRUE
		UNION ALL
		SELECT 'medium' FROM learning_materials WHERE status = 'pending' AND is_active = TRUE
		UNION ALL
		SELECT 'medium' FROM materials WHERE status = 'pending' AND is_active = TRUE
		UNION ALL
		SELECT priority FROM approval_requests WHERE status IN ('pending', 'under_review')
	) AS all_priorities GROUP BY priority`
	if err := r.countInto(ctx, prioritySQL, stats.ByPriority); err != nil {
		return nil, fmt.Errorf("request priority counts: %w", err)
	}

	const todaySQL = `SELECT COUNT(*) FROM (
		SELECT approved_at FROM research_papers WHERE status = 'approved' AND approved_at::date = CURRENT_DATE
		UNION ALL
		SELECT approved_at FROM materials WHERE status = 'approved' AND approved_at::date = CURRENT_DATE
		UNION ALL
		SELECT reviewed_at FROM approval_requests WHERE status = 'approved' AND reviewed_at::date = CURRENT_DATE
	) AS today_approved`
	if err := r.db.GetContext(ctx, &stats.TodayApproved, todaySQL); err != nil {
		return nil, fmt.Errorf("today approved count: %w", err)
	}
	return stats, nil
}

func (r *RequestRepository) countInto(ctx context.Context, query string, dest map[string]int) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

// Departments lists the distinct user departments for filter dropdowns.
func (r *RequestRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM users
	WHERE department IS NOT NULL AND department <> '' ORDER BY department`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// BulkReview resolves a set of approval requests in a single statement and
// returns the ids that were actually updated, so callers can report each
// missing request individually.
func (r *RequestRepository) BulkReview(ctx context.Context, ids []int64, status models.ResourceStatus, feedback string, reviewerID int64, reviewedAt time.Time) ([]int64, error) {
	query, args, err := sqlx.In(`UPDATE approval_requests
	SET status = ?, admin_feedback = ?, reviewed_by = ?, reviewed_at = ?
	WHERE request_id IN (?)
	RETURNING request_id`, string(status), feedback, reviewerID, reviewedAt, ids)
	if err != nil {
		return nil, fmt.Errorf("build bulk review query: %w", err)
	}
	updated := make([]int64, 0, len(ids))
	if err := r.db.SelectContext(ctx, &updated, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("bulk review requests: %w", err)
	}
	return updated, nil
}

// ExportRows returns the filtered unified view without pagination for
// CSV/PDF downloads.
func (r *RequestRepository) ExportRows(ctx context.Context, filter models.RequestFilter) ([]models.RequestItem, error) {
	where, args := buildRequestFilter(filter)
	query := fmt.Sprintf("SELECT * FROM (%s) AS all_requests%s ORDER BY created_at DESC",
		unifiedRequestsSQL, where)

	var items []models.RequestItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("export requests: %w", err)
	}
	return items, nil
}
