package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	"github.com/mcabalar/acadrepo-api/internal/repository"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

// resourceStoreStub mirrors the repository's row semantics in memory.
type resourceStoreStub struct {
	resources     map[string]*models.Resource
	materials     map[int64][]*models.LearningMaterial
	notifications []models.Notification
	notifyErr     error
}

func newResourceStoreStub() *resourceStoreStub {
	return &resourceStoreStub{
		resources: make(map[string]*models.Resource),
		materials: make(map[int64][]*models.LearningMaterial),
	}
}

func key(kind string, id int64) string { return fmt.Sprintf("%s:%d", kind, id) }

func (s *resourceStoreStub) put(res *models.Resource) {
	s.resources[key(res.Kind, res.ID)] = res
}

func (s *resourceStoreStub) GetByID(_ context.Context, d registry.Descriptor, id int64) (*models.Resource, error) {
	res, ok := s.resources[key(d.Kind, id)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *res
	return &clone, nil
}

func (s *resourceStoreStub) Transition(_ context.Context, d registry.Descriptor, p repository.TransitionParams, notifications []models.Notification) error {
	res, ok := s.resources[key(d.Kind, p.ID)]
	if !ok || (d.HasActiveFlag && !res.Active) {
		return sql.ErrNoRows
	}
	if s.notifyErr != nil {
		return s.notifyErr
	}
	res.Status = p.Status
	if p.Feedback != "" {
		feedback := p.Feedback
		res.Feedback = &feedback
	}
	if d.ReviewerColumn != "" && (d.StampReviewerAlways || p.Status == models.StatusApproved) {
		actor := p.ActorID
		now := time.Now()
		res.ReviewedBy = &actor
		res.ReviewedAt = &now
	}
	s.notifications = append(s.notifications, notifications...)
	return nil
}

func (s *resourceStoreStub) Archive(_ context.Context, d registry.Descriptor, id, actorID int64, reason string) error {
	res, ok := s.resources[key(d.Kind, id)]
	if !ok || !res.Active {
		return sql.ErrNoRows
	}
	res.Active = false
	if d.HasArchiveMeta {
		now := time.Now()
		res.ArchivedAt = &now
		res.ArchivedBy = &actorID
	}
	if reason != "" && d.FeedbackColumn != "" {
		res.Feedback = &reason
	}
	return nil
}

func (s *resourceStoreStub) Restore(_ context.Context, d registry.Descriptor, id int64) error {
	res, ok := s.resources[key(d.Kind, id)]
	if !ok || res.Active {
		return sql.ErrNoRows
	}
	res.Active = true
	res.ArchivedAt = nil
	res.ArchivedBy = nil
	return nil
}

func (s *resourceStoreStub) Delete(_ context.Context, d registry.Descriptor, id int64) error {
	k := key(d.Kind, id)
	if _, ok := s.resources[k]; !ok {
		return sql.ErrNoRows
	}
	delete(s.resources, k)
	return nil
}

func (s *resourceStoreStub) SetMaterialsActive(_ context.Context, classID int64, active bool) (int64, error) {
	var affected int64
	for _, m := range s.materials[classID] {
		res := s.resources[key(registry.KindLearningMaterial, m.ID)]
		if res != nil && res.Active != active {
			res.Active = active
			affected++
		}
	}
	return affected, nil
}

func (s *resourceStoreStub) ListMaterialsByClass(_ context.Context, classID int64) ([]models.LearningMaterial, error) {
	out := make([]models.LearningMaterial, 0, len(s.materials[classID]))
	for _, m := range s.materials[classID] {
		out = append(out, *m)
	}
	return out, nil
}

func (s *resourceStoreStub) DeleteClassWithMaterials(_ context.Context, classID int64) error {
	if _, ok := s.resources[key(registry.KindClass, classID)]; !ok {
		return sql.ErrNoRows
	}
	for _, m := range s.materials[classID] {
		delete(s.resources, key(registry.KindLearningMaterial, m.ID))
	}
	delete(s.materials, classID)
	delete(s.resources, key(registry.KindClass, classID))
	return nil
}

type fileRemoverStub struct {
	deleted []string
	missing map[string]bool
}

func (f *fileRemoverStub) Delete(path string) error {
	f.deleted = append(f.deleted, path)
	if f.missing[path] {
		return os.ErrNotExist
	}
	return nil
}

type notificationSinkStub struct {
	created []models.Notification
	err     error
}

func (n *notificationSinkStub) Create(_ context.Context, notification *models.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.created = append(n.created, *notification)
	return nil
}

type auditSinkStub struct {
	entries []models.AccessLog
}

func (a *auditSinkStub) Create(_ context.Context, entry *models.AccessLog) error {
	a.entries = append(a.entries, *entry)
	return nil
}

func moderator() Actor {
	return Actor{ID: 9, Name: "Dr. Reyes", Role: models.RoleDean}
}

func newLifecycleFixture() (*LifecycleService, *resourceStoreStub, *fileRemoverStub, *notificationSinkStub, *auditSinkStub) {
	store := newResourceStoreStub()
	files := &fileRemoverStub{missing: map[string]bool{}}
	notifications := &notificationSinkStub{}
	audit := &auditSinkStub{}
	svc := NewLifecycleService(store, files, NewEffectRecorder(notifications, audit, nil), nil)
	return svc, store, files, notifications, audit
}

func pendingResearch(id, owner int64) *models.Resource {
	path := fmt.Sprintf("/uploads/research/%d.pdf", id)
	return &models.Resource{
		ID: id, Kind: registry.KindResearch, Title: fmt.Sprintf("Paper %d", id),
		OwnerID: owner, Status: models.StatusPending, Active: true, FilePath: &path,
	}
}

func TestTransitionApproveStampsReviewerAndNotifiesOwner(t *testing.T) {
	svc, store, _, _, audit := newLifecycleFixture()
	store.put(pendingResearch(7, 3))

	result, err := svc.Transition(context.Background(), moderator(), dto.TransitionRequest{
		Kind: "research", ID: 7, Status: "approved", Feedback: "solid methodology",
	})
	require.NoError(t, err)
	require.Equal(t, "approved", result.Status)

	res := store.resources[key(registry.KindResearch, 7)]
	require.Equal(t, models.StatusApproved, res.Status)
	require.NotNil(t, res.ReviewedBy)
	require.Equal(t, int64(9), *res.ReviewedBy)
	require.NotNil(t, res.ReviewedAt)

	var ownerNotices []models.Notification
	for _, n := range store.notifications {
		if n.UserID == 3 {
			ownerNotices = append(ownerNotices, n)
		}
	}
	require.Len(t, ownerNotices, 1)
	require.Equal(t, models.NotificationSuccess, ownerNotices[0].Type)
	require.Contains(t, ownerNotices[0].Message, "solid methodology")
	require.Len(t, audit.entries, 1)
	require.Equal(t, models.ActionTransition, audit.entries[0].Action)
}

func TestTransitionOnArchivedResourceFails(t *testing.T) {
	svc, store, _, _, _ := newLifecycleFixture()
	res := pendingResearch(7, 3)
	res.Active = false
	store.put(res)

	for _, target := range []string{"pending", "under_review", "approved", "rejected"} {
		_, err := svc.Transition(context.Background(), moderator(), dto.TransitionRequest{
			Kind: "research", ID: 7, Status: target,
		})
		require.ErrorIs(t, err, appErrors.ErrResourceArchived, target)
	}
}

func TestTransitionValidation(t *testing.T) {
	svc, store, _, _, _ := newLifecycleFixture()
	store.put(pendingResearch(7, 3))

	_, err := svc.Transition(context.Background(), moderator(), dto.TransitionRequest{Kind: "spreadsheet", ID: 7, Status: "approved"})
	require.ErrorIs(t, err, appErrors.ErrUnknownResourceKind)

	_, err = svc.Transition(context.Background(), moderator(), dto.TransitionRequest{Kind: "research", ID: 7, Status: "escalated"})
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = svc.Transition(context.Background(), moderator(), dto.TransitionRequest{Kind: "class", ID: 1, Status: "approved"})
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	faculty := Actor{ID: 2, Role: models.RoleFaculty}
	_, err = svc.Transition(context.Background(), faculty, dto.TransitionRequest{Kind: "research", ID: 7, Status: "approved"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestTransitionRollsIntoTransitionFailed(t *testing.T) {
	svc, store, _, _, _ := newLifecycleFixture()
	store.put(pendingResearch(7, 3))
	store.notifyErr = errors.New("insert failed")

	_, err := svc.Transition(context.Background(), moderator(), dto.TransitionRequest{
		Kind: "research", ID: 7, Status: "approved",
	})
	require.ErrorIs(t, err, appErrors.ErrTransitionFailed)
	// rolled back: status unchanged
	require.Equal(t, models.StatusPending, store.resources[key(registry.KindResearch, 7)].Status)
}

func TestArchiveRestoreRoundTripPreservesStatus(t *testing.T) {
	svc, store, files, _, _ := newLifecycleFixture()
	res := pendingResearch(7, 3)
	res.Status = models.StatusApproved
	store.put(res)

	_, err := svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "research", ID: 7, Reason: "superseded"})
	require.NoError(t, err)
	archived := store.resources[key(registry.KindResearch, 7)]
	require.False(t, archived.Active)
	require.NotNil(t, archived.ArchivedAt)
	require.NotNil(t, archived.ArchivedBy)
	// archival never touches files
	require.Empty(t, files.deleted)

	// archiving again reports the archived state
	_, err = svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "research", ID: 7})
	require.ErrorIs(t, err, appErrors.ErrResourceArchived)

	_, err = svc.Restore(context.Background(), moderator(), dto.RestoreRequest{Kind: "research", ID: 7})
	require.NoError(t, err)
	restored := store.resources[key(registry.KindResearch, 7)]
	require.True(t, restored.Active)
	require.Nil(t, restored.ArchivedAt)
	require.Nil(t, restored.ArchivedBy)
	require.Equal(t, models.StatusApproved, restored.Status)

	// restoring a live resource fails
	_, err = svc.Restore(context.Background(), moderator(), dto.RestoreRequest{Kind: "research", ID: 7})
	require.ErrorIs(t, err, appErrors.ErrResourceNotArchived)
}

func TestArchiveRejectsKindsWithoutArchival(t *testing.T) {
	svc, store, _, _, _ := newLifecycleFixture()
	store.put(&models.Resource{ID: 5, Kind: registry.KindApprovalRequest, Title: "Request", OwnerID: 4, Status: models.StatusPending, Active: true})

	_, err := svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "approval_request", ID: 5})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func classWithMaterials(store *resourceStoreStub, classID int64, materialIDs ...int64) {
	store.put(&models.Resource{ID: classID, Kind: registry.KindClass, Title: fmt.Sprintf("Class %d", classID), OwnerID: 1, Active: true})
	for _, id := range materialIDs {
		path := fmt.Sprintf("/uploads/learning_materials/%d.pdf", id)
		store.put(&models.Resource{ID: id, Kind: registry.KindLearningMaterial, Title: fmt.Sprintf("Material %d", id), OwnerID: 2, Status: models.StatusApproved, Active: true, FilePath: &path})
		store.materials[classID] = append(store.materials[classID], &models.LearningMaterial{ID: id, ClassID: classID, FilePath: &path})
	}
}

func TestArchiveClassCascadesOnlyToItsMaterials(t *testing.T) {
	svc, store, _, _, _ := newLifecycleFixture()
	classWithMaterials(store, 11, 101, 102)
	classWithMaterials(store, 12, 201)

	_, err := svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "class", ID: 11})
	require.NoError(t, err)

	require.False(t, store.resources[key(registry.KindLearningMaterial, 101)].Active)
	require.False(t, store.resources[key(registry.KindLearningMaterial, 102)].Active)
	require.True(t, store.resources[key(registry.KindLearningMaterial, 201)].Active)

	_, err = svc.Restore(context.Background(), moderator(), dto.RestoreRequest{Kind: "class", ID: 11})
	require.NoError(t, err)
	require.True(t, store.resources[key(registry.KindLearningMaterial, 101)].Active)
}

func TestPermanentDeleteSecondCallFails(t *testing.T) {
	svc, store, files, _, _ := newLifecycleFixture()
	store.put(pendingResearch(7, 3))

	_, err := svc.PermanentDelete(context.Background(), moderator(), dto.DeleteRequest{Kind: "research", ID: 7})
	require.NoError(t, err)
	require.Equal(t, []string{"/uploads/research/7.pdf"}, files.deleted)

	_, err = svc.PermanentDelete(context.Background(), moderator(), dto.DeleteRequest{Kind: "research", ID: 7})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPermanentDeleteSurvivesMissingFile(t *testing.T) {
	svc, store, files, _, _ := newLifecycleFixture()
	res := pendingResearch(7, 3)
	files.missing[*res.FilePath] = true
	store.put(res)

	_, err := svc.PermanentDelete(context.Background(), moderator(), dto.DeleteRequest{Kind: "research", ID: 7})
	require.NoError(t, err)
	_, exists := store.resources[key(registry.KindResearch, 7)]
	require.False(t, exists)
}

func TestPermanentDeleteClassRemovesMaterialFiles(t *testing.T) {
	svc, store, files, _, _ := newLifecycleFixture()
	classWithMaterials(store, 11, 101, 102)

	_, err := svc.PermanentDelete(context.Background(), moderator(), dto.DeleteRequest{Kind: "class", ID: 11})
	require.NoError(t, err)
	require.Len(t, files.deleted, 2)
	_, exists := store.resources[key(registry.KindLearningMaterial, 101)]
	require.False(t, exists)
	_, exists = store.resources[key(registry.KindClass, 11)]
	require.False(t, exists)
}

func TestArchiveNotifiesOwnerEvenWhenActing(t *testing.T) {
	svc, store, _, notifications, _ := newLifecycleFixture()
	store.put(pendingResearch(7, moderator().ID))

	// owner archives their own submission and still gets the notice
	_, err := svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "research", ID: 7})
	require.NoError(t, err)

	require.Len(t, notifications.created, 1)
	require.Equal(t, moderator().ID, notifications.created[0].UserID)
	require.Contains(t, notifications.created[0].Message, "archived")
}

func TestArchiveNotifiesOwnerBestEffort(t *testing.T) {
	svc, store, _, notifications, _ := newLifecycleFixture()
	store.put(pendingResearch(7, 3))
	notifications.err = errors.New("store down")

	// a failing notification sink never fails the archive
	_, err := svc.Archive(context.Background(), moderator(), dto.ArchiveRequest{Kind: "research", ID: 7})
	require.NoError(t, err)
	require.False(t, store.resources[key(registry.KindResearch, 7)].Active)
}
