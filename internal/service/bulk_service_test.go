package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type bulkReviewStub struct {
	ids      []int64
	status   models.ResourceStatus
	feedback string
	missing  map[int64]bool
	err      error
}

func (b *bulkReviewStub) BulkReview(_ context.Context, ids []int64, status models.ResourceStatus, feedback string, _ int64, _ time.Time) ([]int64, error) {
	b.ids = ids
	b.status = status
	b.feedback = feedback
	if b.err != nil {
		return nil, b.err
	}
	updated := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !b.missing[id] {
			updated = append(updated, id)
		}
	}
	return updated, nil
}

func newBulkFixture() (*BulkService, *resourceStoreStub, *bulkReviewStub, *auditSinkStub) {
	store := newResourceStoreStub()
	files := &fileRemoverStub{missing: map[string]bool{}}
	audit := &auditSinkStub{}
	effects := NewEffectRecorder(&notificationSinkStub{}, audit, nil)
	lifecycle := NewLifecycleService(store, files, effects, nil)
	reviews := &bulkReviewStub{}
	return NewBulkService(lifecycle, reviews, effects, nil), store, reviews, audit
}

func TestBulkApplyValidatesRequest(t *testing.T) {
	svc, _, _, _ := newBulkFixture()

	_, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{Operation: "approve"})
	require.ErrorIs(t, err, appErrors.ErrInvalidBulkRequest)

	_, err = svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: "promote",
		Items:     []models.ResourceRef{{Kind: "research", ID: 1}},
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidBulkRequest)
}

func TestBulkRestoreIsolatesPerItemFailures(t *testing.T) {
	svc, store, _, _ := newBulkFixture()

	archived1 := pendingResearch(1, 3)
	archived1.Active = false
	archived2 := pendingResearch(2, 3)
	archived2.Active = false
	live := pendingResearch(3, 3)
	store.put(archived1)
	store.put(archived2)
	store.put(live)

	result, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: dto.BulkOpRestore,
		Items: []models.ResourceRef{
			{Kind: "research", ID: 1},
			{Kind: "research", ID: 3}, // already live
			{Kind: "research", ID: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)
	require.Equal(t, 3, result.TotalCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, int64(3), result.Errors[0].ID)
	require.True(t, store.resources[key("research", 1)].Active)
	require.True(t, store.resources[key("research", 2)].Active)
}

func TestBulkApproveMixesFastPathAndLoop(t *testing.T) {
	svc, store, reviews, _ := newBulkFixture()
	store.put(pendingResearch(1, 3))
	store.put(&models.Resource{ID: 5, Kind: "approval_request", Title: "Request", OwnerID: 4, Status: models.StatusPending, Active: true})
	store.put(&models.Resource{ID: 6, Kind: "approval_request", Title: "Request", OwnerID: 4, Status: models.StatusPending, Active: true})

	result, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: dto.BulkOpApprove,
		Feedback:  "batch",
		Items: []models.ResourceRef{
			{Kind: "approval_request", ID: 5},
			{Kind: "research", ID: 1},
			{Kind: "approval_request", ID: 6},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.SuccessCount)
	require.Empty(t, result.Errors)
	// approval requests went through one batched update
	require.Equal(t, []int64{5, 6}, reviews.ids)
	require.Equal(t, models.StatusApproved, reviews.status)
	require.Equal(t, "batch", reviews.feedback)
	// the research item went through the per-item path
	require.Equal(t, models.StatusApproved, store.resources[key("research", 1)].Status)
}

func TestBulkDeleteMapsApprovalRequestsToRejection(t *testing.T) {
	svc, _, reviews, _ := newBulkFixture()

	result, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: dto.BulkOpDelete,
		Items:     []models.ResourceRef{{Kind: "approval_request", ID: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)
	require.Equal(t, models.StatusRejected, reviews.status)
}

func TestBulkReviewReportsEachMissedRequest(t *testing.T) {
	svc, _, reviews, _ := newBulkFixture()
	reviews.missing = map[int64]bool{6: true}

	result, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: dto.BulkOpApprove,
		Items: []models.ResourceRef{
			{Kind: "approval_request", ID: 5},
			{Kind: "approval_request", ID: 6},
			{Kind: "approval_request", ID: 7},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "approval_request", result.Errors[0].Kind)
	require.Equal(t, int64(6), result.Errors[0].ID)
}

func TestBulkRecordsAuditSummary(t *testing.T) {
	svc, store, _, audit := newBulkFixture()
	store.put(pendingResearch(1, 3))

	_, err := svc.Apply(context.Background(), moderator(), dto.BulkRequest{
		Operation: dto.BulkOpApprove,
		Items:     []models.ResourceRef{{Kind: "research", ID: 1}},
	})
	require.NoError(t, err)

	var found bool
	for _, entry := range audit.entries {
		if entry.Action == models.ActionBulkOperation {
			found = true
		}
	}
	require.True(t, found)
}
