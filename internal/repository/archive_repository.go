package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mcabalar/acadrepo-api/internal/models"
)

// archivedItemsSQL merges everything with is_active = FALSE into one
// browsable listing. Materials archived through a class cascade have no
// archived_at of their own, so the class's timestamp stands in via updated_at.
const archivedItemsSQL = `
	SELECT 'class' AS item_type,
	       c.id AS item_id,
	       c.subject_name AS title,
	       c.instructor AS created_by_name,
	       c.department,
	       c.created_at,
	       c.updated_at AS archived_at,
	       NULL AS file_path
	FROM classes c
	WHERE c.is_active = FALSE
	UNION ALL
	SELECT 'learning_material',
	       lm.material_id,
	       lm.title,
	       (SELECT name FROM users WHERE user_id = lm.uploaded_by),
	       (SELECT department FROM classes WHERE id = lm.class_id),
	       lm.created_at,
	       COALESCE(lm.archived_at, lm.updated_at),
	       lm.file_path
	FROM learning_materials lm
	WHERE lm.is_active = FALSE
	UNION ALL
	SELECT 'material',
	       m.material_id,
	       m.title,
	       (SELECT name FROM users WHERE user_id = m.uploaded_by),
	       (SELECT department FROM users WHERE user_id = m.uploaded_by),
	       m.upload_date,
	       m.archived_at,
	       m.file_path
	FROM materials m
	WHERE m.is_active = FALSE
	UNION ALL
	SELECT 'research',
	       r.research_id,
	       r.title,
	       (SELECT name FROM users WHERE user_id = r.submitted_by),
	       (SELECT department FROM users WHERE user_id = r.submitted_by),
	       r.submission_date,
	       r.archived_at,
	       r.file_path
	FROM research_papers r
	WHERE r.is_active = FALSE`

// ArchiveRepository is the read side of the archive browser.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository constructs the repository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func buildArchiveFilter(filter models.ArchiveFilter) (string, []interface{}) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if filter.ItemType != "" {
		args = append(args, filter.ItemType)
		conditions = append(conditions, fmt.Sprintf("item_type = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, "%"+filter.Department+"%")
		conditions = append(conditions, fmt.Sprintf("department ILIKE $%d", len(args)))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR created_by_name ILIKE $%d)", len(args)-1, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of archived items, most recently archived first.
func (r *ArchiveRepository) List(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedItem, error) {
	where, args := buildArchiveFilter(filter)
	query := fmt.Sprintf("SELECT * FROM (%s) AS archived_items%s ORDER BY archived_at DESC NULLS LAST LIMIT %d OFFSET %d",
		archivedItemsSQL, where, filter.PageSize, (filter.Page-1)*filter.PageSize)

	items := make([]models.ArchivedItem, 0, filter.PageSize)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list archived items: %w", err)
	}
	return items, nil
}

// Count returns the archived-items total under the same filter as List.
func (r *ArchiveRepository) Count(ctx context.Context, filter models.ArchiveFilter) (int, error) {
	where, args := buildArchiveFilter(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS archived_items%s", archivedItemsSQL, where)

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count archived items: %w", err)
	}
	return total, nil
}

// Stats aggregates archive counts per kind plus the last seven days.
func (r *ArchiveRepository) Stats(ctx context.Context) (*models.ArchiveStats, error) {
	stats := &models.ArchiveStats{ByType: map[string]int{}}

	const byTypeSQL = `SELECT item_type, COUNT(*) AS count FROM (
		SELECT 'class' AS item_type FROM classes WHERE is_active = FALSE
		UNION ALL
		SELECT 'learning_material' FROM learning_materials WHERE is_active = FALSE
		UNION ALL
		SELECT 'material' FROM materials WHERE is_active = FALSE
		UNION ALL
		SELECT 'research' FROM research_papers WHERE is_active = FALSE
	) AS archived GROUP BY item_type`
	rows, err := r.db.QueryContext(ctx, byTypeSQL)
	if err != nil {
		return nil, fmt.Errorf("archive type counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemType string
		var count int
		if err := rows.Scan(&itemType, &count); err != nil {
			return nil, fmt.Errorf("scan archive type count: %w", err)
		}
		stats.ByType[itemType] = count
		stats.TotalArchived += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive type counts: %w", err)
	}

	const recentSQL = `SELECT COUNT(*) FROM (
		SELECT updated_at FROM classes WHERE is_active = FALSE AND updated_at >= NOW() - INTERVAL '7 days'
		UNION ALL
		SELECT COALESCE(archived_at, updated_at) FROM learning_materials WHERE is_active = FALSE AND COALESCE(archived_at, updated_at) >= NOW() - INTERVAL '7 days'
		UNION ALL
		SELECT archived_at FROM materials WHERE is_active = FALSE AND archived_at >= NOW() - INTERVAL '7 days'
		UNION ALL
		SELECT archived_at FROM research_papers WHERE is_active = FALSE AND archived_at >= NOW() - INTERVAL '7 days'
	) AS recent_archived`
	if err := r.db.GetContext(ctx, &stats.RecentArchived, recentSQL); err != nil {
		return nil, fmt.Errorf("recent archive count: %w", err)
	}
	return stats, nil
}
