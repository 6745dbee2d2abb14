package dto

// SubmitResearchRequest accompanies a research paper upload.
type SubmitResearchRequest struct {
	Title        string `form:"title" binding:"required"`
	Abstract     string `form:"abstract"`
	Authors      string `form:"authors"`
	Category     string `form:"category"`
	AcademicYear string `form:"academic_year"`
}

// SubmitMaterialRequest accompanies a generic material upload.
type SubmitMaterialRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
	CourseID    *int64 `form:"course_id"`
}

// SubmitLearningMaterialRequest attaches a file to a class.
type SubmitLearningMaterialRequest struct {
	ClassID int64  `form:"class_id" binding:"required"`
	Title   string `form:"title" binding:"required"`
}

// CreateClassRequest registers a new course offering.
type CreateClassRequest struct {
	SubjectName string  `json:"subject_name" binding:"required"`
	Instructor  string  `json:"instructor" binding:"required"`
	Department  *string `json:"department"`
	Schedule    *string `json:"schedule"`
}

// SubmissionResult echoes the newly created resource.
type SubmissionResult struct {
	Kind     string `json:"type"`
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}
