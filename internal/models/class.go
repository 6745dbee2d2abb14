package models

import "time"

// Class represents a course offering that learning materials hang off.
// Archiving a class cascades to its materials; hard-deleting one removes
// them together with their stored files.
type Class struct {
	ID          int64     `db:"id" json:"id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Instructor  string    `db:"instructor" json:"instructor"`
	Department  *string   `db:"department" json:"department,omitempty"`
	Schedule    *string   `db:"schedule" json:"schedule,omitempty"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedBy   int64     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LearningMaterial is a file attached to a class.
type LearningMaterial struct {
	ID         int64     `db:"material_id" json:"material_id"`
	ClassID    int64     `db:"class_id" json:"class_id"`
	Title      string    `db:"title" json:"title"`
	FilePath   *string   `db:"file_path" json:"file_path,omitempty"`
	FileSize   *int64    `db:"file_size" json:"file_size,omitempty"`
	UploadedBy int64     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
