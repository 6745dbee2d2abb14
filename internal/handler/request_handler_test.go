package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/service"
)

type fakeRequestSrv struct {
	lastQuery       dto.ListRequestsQuery
	invalidateCalls int
}

func (f *fakeRequestSrv) List(_ context.Context, q dto.ListRequestsQuery) (*dto.ListRequestsResponse, error) {
	f.lastQuery = q
	return &dto.ListRequestsResponse{
		Requests:   []models.RequestItem{{RequestID: 1, RequestType: "research", Title: "Thesis"}},
		Pagination: models.Pagination{CurrentPage: 1, PerPage: 10, Total: 1, TotalPages: 1},
	}, nil
}

func (f *fakeRequestSrv) Get(context.Context, string, int64) (*models.RequestItem, error) {
	return &models.RequestItem{RequestID: 1}, nil
}

func (f *fakeRequestSrv) Stats(context.Context) (*models.RequestStats, error) {
	return &models.RequestStats{ByStatus: map[string]int{"pending": 3}}, nil
}

func (f *fakeRequestSrv) Departments(context.Context) ([]string, error) {
	return []string{"Engineering"}, nil
}

func (f *fakeRequestSrv) Export(context.Context, dto.ExportRequestsQuery) ([]byte, string, string, error) {
	return []byte("ID,Title\n"), "text/csv", "requests.csv", nil
}

func (f *fakeRequestSrv) InvalidateStats(context.Context) { f.invalidateCalls++ }

type fakeBulkSrv struct {
	lastReq dto.BulkRequest
}

func (f *fakeBulkSrv) Apply(_ context.Context, _ service.Actor, req dto.BulkRequest) (*dto.BulkResult, error) {
	f.lastReq = req
	return &dto.BulkResult{Operation: req.Operation, SuccessCount: len(req.Items), TotalCount: len(req.Items)}, nil
}

func TestRequestHandlerListForwardsFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRequestSrv{}
	handler := NewRequestHandler(srv, nil, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/requests?status=pending&department=Engineering&page=2", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", srv.lastQuery.Status)
	assert.Equal(t, "Engineering", srv.lastQuery.Department)
	assert.Equal(t, 2, srv.lastQuery.Page)
}

func TestRequestHandlerExportSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/requests/export?format=csv", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "requests.csv")
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestRequestHandlerReviewMapsToTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRequestSrv{}
	lifecycle := &fakeLifecycleSrv{}
	handler := NewRequestHandler(srv, lifecycle, nil, nil)

	body, _ := json.Marshal(dto.ReviewRequest{Status: "rejected", Feedback: "missing abstract"})
	rec := httptest.NewRecorder()
	c, _ := moderatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/requests/research/9/review", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "type", Value: "research"}, {Key: "id", Value: "9"}}

	handler.Review(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "research", lifecycle.lastTransition.Kind)
	assert.Equal(t, int64(9), lifecycle.lastTransition.ID)
	assert.Equal(t, "rejected", lifecycle.lastTransition.Status)
	assert.Equal(t, "missing abstract", lifecycle.lastTransition.Feedback)
	assert.Equal(t, 1, srv.invalidateCalls)
}

func TestRequestHandlerBulkReviewBuildsApprovalItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRequestSrv{}
	bulk := &fakeBulkSrv{}
	handler := NewRequestHandler(srv, nil, bulk, nil)

	body, _ := json.Marshal(dto.BulkReviewRequest{IDs: []int64{4, 5}, Status: "approved", Feedback: "batch"})
	rec := httptest.NewRecorder()
	c, _ := moderatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/requests/bulk-review", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.BulkReview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.BulkOpApprove, bulk.lastReq.Operation)
	assert.Len(t, bulk.lastReq.Items, 2)
	assert.Equal(t, "approval_request", bulk.lastReq.Items[0].Kind)
	assert.Equal(t, 1, srv.invalidateCalls)
}

func TestRequestHandlerBulkReviewRejectsOtherStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&fakeRequestSrv{}, nil, &fakeBulkSrv{}, nil)

	body, _ := json.Marshal(dto.BulkReviewRequest{IDs: []int64{4}, Status: "under_review"})
	rec := httptest.NewRecorder()
	c, _ := moderatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/requests/bulk-review", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.BulkReview(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
