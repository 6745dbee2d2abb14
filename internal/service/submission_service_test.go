package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/internal/repository"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type submissionStoreStub struct {
	research  []repository.ResearchSubmission
	materials []repository.MaterialSubmission
	learning  []repository.LearningMaterialSubmission
	classes   map[int64]*models.Class
	nextID    int64
}

func newSubmissionStoreStub() *submissionStoreStub {
	return &submissionStoreStub{classes: map[int64]*models.Class{}, nextID: 100}
}

func (s *submissionStoreStub) CreateResearch(_ context.Context, sub repository.ResearchSubmission) (int64, error) {
	s.research = append(s.research, sub)
	s.nextID++
	return s.nextID, nil
}

func (s *submissionStoreStub) CreateMaterial(_ context.Context, sub repository.MaterialSubmission) (int64, error) {
	s.materials = append(s.materials, sub)
	s.nextID++
	return s.nextID, nil
}

func (s *submissionStoreStub) CreateLearningMaterial(_ context.Context, sub repository.LearningMaterialSubmission) (int64, error) {
	s.learning = append(s.learning, sub)
	s.nextID++
	return s.nextID, nil
}

func (s *submissionStoreStub) CreateClass(_ context.Context, c *models.Class) (int64, error) {
	s.nextID++
	c.ID = s.nextID
	s.classes[c.ID] = c
	return c.ID, nil
}

func (s *submissionStoreStub) GetClass(_ context.Context, id int64) (*models.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

type fileSaverStub struct {
	saved []string
}

func (f *fileSaverStub) SaveStream(filename string, _ io.Reader) (string, error) {
	f.saved = append(f.saved, filename)
	return "/uploads/" + filename, nil
}

func newSubmissionFixture() (*SubmissionService, *submissionStoreStub, *notificationSinkStub, *auditSinkStub) {
	store := newSubmissionStoreStub()
	notifications := &notificationSinkStub{}
	audit := &auditSinkStub{}
	svc := NewSubmissionService(store, &fileSaverStub{}, NewEffectRecorder(notifications, audit, nil), nil)
	return svc, store, notifications, audit
}

func uploader() Actor {
	return Actor{ID: 4, Name: "Prof. Lim", Role: models.RoleFaculty}
}

func TestSubmitResearchNotifiesUploader(t *testing.T) {
	svc, store, notifications, audit := newSubmissionFixture()

	result, err := svc.SubmitResearch(context.Background(), uploader(), dto.SubmitResearchRequest{
		Title: "Coral Bleaching Survey", Abstract: "...", Authors: "Lim",
	}, &Upload{Filename: "paper.pdf", Size: 2048, Reader: strings.NewReader("pdf-bytes")})
	require.NoError(t, err)
	require.Equal(t, registry.KindResearch, result.Kind)
	require.Len(t, store.research, 1)

	require.Len(t, notifications.created, 1)
	notice := notifications.created[0]
	require.Equal(t, int64(4), notice.UserID)
	require.Equal(t, models.NotificationInfo, notice.Type)
	require.Contains(t, notice.Message, "Coral Bleaching Survey")
	require.Contains(t, notice.Message, "pending review")

	require.Len(t, audit.entries, 1)
	require.Equal(t, "submit_research", audit.entries[0].Action)
}

func TestSubmitLearningMaterialNotifiesUploader(t *testing.T) {
	svc, store, notifications, _ := newSubmissionFixture()
	classID, err := store.CreateClass(context.Background(), &models.Class{SubjectName: "Biology", Active: true})
	require.NoError(t, err)

	_, err = svc.SubmitLearningMaterial(context.Background(), uploader(), dto.SubmitLearningMaterialRequest{
		ClassID: classID, Title: "Week 3 Slides",
	}, nil)
	require.NoError(t, err)

	require.Len(t, notifications.created, 1)
	require.Contains(t, notifications.created[0].Message, "Week 3 Slides")
}

func TestSubmitLearningMaterialRejectsArchivedClass(t *testing.T) {
	svc, store, notifications, _ := newSubmissionFixture()
	classID, err := store.CreateClass(context.Background(), &models.Class{SubjectName: "Biology", Active: false})
	require.NoError(t, err)

	_, err = svc.SubmitLearningMaterial(context.Background(), uploader(), dto.SubmitLearningMaterialRequest{
		ClassID: classID, Title: "Week 3 Slides",
	}, nil)
	require.ErrorIs(t, err, appErrors.ErrResourceArchived)
	require.Empty(t, notifications.created)
}

func TestCreateClassSkipsUploadNotice(t *testing.T) {
	svc, _, notifications, audit := newSubmissionFixture()

	class, err := svc.CreateClass(context.Background(), uploader(), dto.CreateClassRequest{
		SubjectName: "Biology", Instructor: "Prof. Lim",
	})
	require.NoError(t, err)
	require.True(t, class.Active)

	require.Empty(t, notifications.created)
	require.Len(t, audit.entries, 1)
}
