package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcabalar/acadrepo-api/internal/models"
)

// SubmissionRepository inserts new resources. Every row starts pending and
// active; reviewers move it from there.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ResearchSubmission carries a new research paper row.
type ResearchSubmission struct {
	Title        string
	Abstract     string
	Authors      string
	Category     string
	AcademicYear string
	SubmittedBy  int64
	FilePath     string
	FileSize     int64
}

// CreateResearch inserts a research paper and returns its id.
func (r *SubmissionRepository) CreateResearch(ctx context.Context, s ResearchSubmission) (int64, error) {
	const query = `INSERT INTO research_papers
	(title, abstract, authors, research_type, academic_year, submitted_by, file_path, file_size, status, is_active, submission_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', TRUE, NOW())
	RETURNING research_id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		s.Title, s.Abstract, s.Authors, s.Category, s.AcademicYear, s.SubmittedBy, s.FilePath, s.FileSize)
	if err != nil {
		return 0, fmt.Errorf("create research paper: %w", err)
	}
	return id, nil
}

// MaterialSubmission carries a new general material row.
type MaterialSubmission struct {
	Title       string
	Description string
	CourseID    *int64
	UploadedBy  int64
	FilePath    string
	FileSize    int64
}

// CreateMaterial inserts a general material and returns its id.
func (r *SubmissionRepository) CreateMaterial(ctx context.Context, s MaterialSubmission) (int64, error) {
	const query = `INSERT INTO materials
	(title, description, course_id, uploaded_by, file_path, file_size, status, is_active, upload_date)
	VALUES ($1, $2, $3, $4, $5, $6, 'pending', TRUE, NOW())
	RETURNING material_id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		s.Title, s.Description, s.CourseID, s.UploadedBy, s.FilePath, s.FileSize)
	if err != nil {
		return 0, fmt.Errorf("create material: %w", err)
	}
	return id, nil
}

// LearningMaterialSubmission carries a new class-bound material row.
type LearningMaterialSubmission struct {
	ClassID    int64
	Title      string
	UploadedBy int64
	FilePath   string
	FileSize   int64
}

// CreateLearningMaterial inserts a learning material and returns its id.
func (r *SubmissionRepository) CreateLearningMaterial(ctx context.Context, s LearningMaterialSubmission) (int64, error) {
	const query = `INSERT INTO learning_materials
	(class_id, title, uploaded_by, file_path, file_size, status, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, 'pending', TRUE, NOW())
	RETURNING material_id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		s.ClassID, s.Title, s.UploadedBy, s.FilePath, s.FileSize)
	if err != nil {
		return 0, fmt.Errorf("create learning material: %w", err)
	}
	return id, nil
}

// CreateClass registers a new course offering and returns its id.
func (r *SubmissionRepository) CreateClass(ctx context.Context, c *models.Class) (int64, error) {
	const query = `INSERT INTO classes (subject_name, instructor, department, schedule, is_active, created_by, created_at)
	VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	RETURNING id`
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		c.SubjectName, c.Instructor, c.Department, c.Schedule, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("create class: %w", err)
	}
	c.ID = id
	return id, nil
}

// GetClass loads one class row.
func (r *SubmissionRepository) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	const query = `SELECT id, subject_name, instructor, department, schedule, is_active, created_by, created_at
	FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
