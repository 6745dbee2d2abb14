// Package registry maps caller-supplied resource kind tokens to the
// structural descriptors of the kind-specific tables. Every lifecycle
// operation starts here: there is no normalized resources table, so the
// descriptor tells the repositories which table and columns to touch.
package registry

import (
	"strings"

	"github.com/mcabalar/acadrepo-api/pkg/errors"
)

// Canonical resource kinds.
const (
	KindResearch         = "research"
	KindLearningMaterial = "learning_material"
	KindMaterial         = "material"
	KindApprovalRequest  = "approval_request"
	KindClass            = "class"
)

// Descriptor describes how one resource kind is persisted.
type Descriptor struct {
	Kind string

	Table        string
	IDColumn     string
	TitleColumn  string
	OwnerColumn  string
	StatusColumn string
	// FeedbackColumn stores rejection reasons or reviewer feedback.
	FeedbackColumn string
	CreatedColumn  string

	FilePathColumn string
	FileSizeColumn string

	ReviewerColumn   string
	ReviewedAtColumn string

	// HasStatus is false for kinds outside the approval lifecycle (class).
	HasStatus bool
	// HasActiveFlag marks kinds that support archival via is_active.
	HasActiveFlag bool
	// HasArchiveMeta marks kinds that additionally record archived_at/archived_by.
	HasArchiveMeta bool
	// StampReviewerAlways: the reviewer columns are written on every status
	// change, not only on approval.
	StampReviewerAlways bool
	// CascadesToMaterials: archive/restore/delete fan out to learning
	// materials keyed by class_id.
	CascadesToMaterials bool
}

// HasFile reports whether rows of this kind may reference a stored file.
func (d Descriptor) HasFile() bool { return d.FilePathColumn != "" }

var descriptors = map[string]Descriptor{
	KindResearch: {
		Kind:             KindResearch,
		Table:            "research_papers",
		IDColumn:         "research_id",
		TitleColumn:      "title",
		OwnerColumn:      "submitted_by",
		StatusColumn:     "status",
		FeedbackColumn:   "rejection_reason",
		CreatedColumn:    "submission_date",
		FilePathColumn:   "file_path",
		FileSizeColumn:   "file_size",
		ReviewerColumn:   "approved_by",
		ReviewedAtColumn: "approved_at",
		HasStatus:        true,
		HasActiveFlag:    true,
		HasArchiveMeta:   true,
	},
	KindLearningMaterial: {
		Kind:             KindLearningMaterial,
		Table:            "learning_materials",
		IDColumn:         "material_id",
		TitleColumn:      "title",
		OwnerColumn:      "uploaded_by",
		StatusColumn:     "status",
		FeedbackColumn:   "rejection_reason",
		CreatedColumn:    "created_at",
		FilePathColumn:   "file_path",
		FileSizeColumn:   "file_size",
		ReviewerColumn:   "approved_by",
		ReviewedAtColumn: "approved_at",
		HasStatus:        true,
		HasActiveFlag:    true,
		HasArchiveMeta:   true,
	},
	KindMaterial: {
		Kind:             KindMaterial,
		Table:            "materials",
		IDColumn:         "material_id",
		TitleColumn:      "title",
		OwnerColumn:      "uploaded_by",
		StatusColumn:     "status",
		FeedbackColumn:   "rejection_reason",
		CreatedColumn:    "upload_date",
		FilePathColumn:   "file_path",
		FileSizeColumn:   "file_size",
		ReviewerColumn:   "approved_by",
		ReviewedAtColumn: "approved_at",
		HasStatus:        true,
		HasActiveFlag:    true,
		HasArchiveMeta:   true,
	},
	KindApprovalRequest: {
		Kind:                KindApprovalRequest,
		Table:               "approval_requests",
		IDColumn:            "request_id",
		TitleColumn:         "title",
		OwnerColumn:         "submitted_by",
		StatusColumn:        "status",
		FeedbackColumn:      "admin_feedback",
		CreatedColumn:       "submitted_at",
		ReviewerColumn:      "reviewed_by",
		ReviewedAtColumn:    "reviewed_at",
		HasStatus:           true,
		StampReviewerAlways: true,
	},
	KindClass: {
		Kind:                KindClass,
		Table:               "classes",
		IDColumn:            "id",
		TitleColumn:         "subject_name",
		OwnerColumn:         "created_by",
		CreatedColumn:       "created_at",
		HasActiveFlag:       true,
		CascadesToMaterials: true,
	},
}

// Accepted synonyms beyond the canonical kind names. Resolution is
// case-insensitive and treats spaces and hyphens as underscores.
var synonyms = map[string]string{
	"paper":             KindResearch,
	"research_paper":    KindResearch,
	"thesis":            KindResearch,
	"request":           KindApprovalRequest,
	"approval":          KindApprovalRequest,
	"activity":          KindMaterial,
	"course":            KindClass,
	"subject":           KindClass,
	"learning_resource": KindLearningMaterial,
}

// Resolve maps a caller-supplied kind token to its Descriptor. Unknown
// tokens fail with ErrUnknownResourceKind.
func Resolve(token string) (Descriptor, error) {
	key := normalize(token)
	if canonical, ok := synonyms[key]; ok {
		key = canonical
	}
	d, ok := descriptors[key]
	if !ok {
		return Descriptor{}, errors.ErrUnknownResourceKind.WithDetails("kind: " + token)
	}
	return d, nil
}

// Kinds returns the canonical kind names that participate in the approval
// lifecycle, in the order the aggregation layer unions them.
func Kinds() []string {
	return []string{KindApprovalRequest, KindResearch, KindLearningMaterial, KindMaterial}
}

func normalize(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
