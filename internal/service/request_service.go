package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/pkg/config"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/export"
)

const requestStatsCacheKey = "requests:stats"

type requestReader interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestItem, error)
	Count(ctx context.Context, filter models.RequestFilter) (int, error)
	GetByID(ctx context.Context, kind string, id int64) (*models.RequestItem, error)
	Stats(ctx context.Context) (*models.RequestStats, error)
	Departments(ctx context.Context) ([]string, error)
	ExportRows(ctx context.Context, filter models.RequestFilter) ([]models.RequestItem, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RequestService serves the unified read side: listing, detail, dashboard
// aggregates and export downloads.
type RequestService struct {
	requests requestReader
	cache    statsCache
	csv      csvRenderer
	pdf      pdfRenderer
	metrics  *MetricsService
	cfg      config.RequestsConfig
	logger   *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(requests requestReader, cache statsCache, csv csvRenderer, pdf pdfRenderer, metrics *MetricsService, cfg config.RequestsConfig, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{requests: requests, cache: cache, csv: csv, pdf: pdf, metrics: metrics, cfg: cfg, logger: logger}
}

func (s *RequestService) clampPaging(filter *models.RequestFilter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if filter.PageSize > s.cfg.MaxPageSize {
		filter.PageSize = s.cfg.MaxPageSize
	}
}

func parseFilter(q dto.ListRequestsQuery) (models.RequestFilter, error) {
	filter := models.RequestFilter{
		Search:     q.Search,
		Status:     q.Status,
		Priority:   q.Priority,
		Department: q.Department,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	if q.Status != "" && !models.ValidStatus(q.Status) {
		return filter, appErrors.ErrValidation.WithDetails("status: " + q.Status)
	}
	if q.DateFrom != "" {
		from, err := time.Parse("2006-01-02", q.DateFrom)
		if err != nil {
			return filter, appErrors.ErrValidation.WithDetails("date_from: " + q.DateFrom)
		}
		filter.DateFrom = &from
	}
	if q.DateTo != "" {
		to, err := time.Parse("2006-01-02", q.DateTo)
		if err != nil {
			return filter, appErrors.ErrValidation.WithDetails("date_to: " + q.DateTo)
		}
		filter.DateTo = &to
	}
	return filter, nil
}

// List returns one page of the unified collection with its pagination
// envelope. The count runs under the same predicate as the page query.
func (s *RequestService) List(ctx context.Context, q dto.ListRequestsQuery) (*dto.ListRequestsResponse, error) {
	filter, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	s.clampPaging(&filter)

	total, err := s.requests.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count unified requests: %w", err)
	}
	items, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list unified requests: %w", err)
	}

	return &dto.ListRequestsResponse{
		Requests: items,
		Pagination: models.Pagination{
			CurrentPage: filter.Page,
			PerPage:     filter.PageSize,
			Total:       total,
			TotalPages:  int(math.Ceil(float64(total) / float64(filter.PageSize))),
		},
	}, nil
}

// Get returns one unified item by kind and id.
func (s *RequestService) Get(ctx context.Context, kind string, id int64) (*models.RequestItem, error) {
	item, err := s.requests.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get unified request: %w", err)
	}
	return item, nil
}

// Stats returns the dashboard aggregates, served from Redis when fresh.
func (s *RequestService) Stats(ctx context.Context) (*models.RequestStats, error) {
	var cached models.RequestStats
	if err := s.cache.Get(ctx, requestStatsCacheKey, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("request stats cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheOperation(false)

	stats, err := s.requests.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate request stats: %w", err)
	}
	if err := s.cache.Set(ctx, requestStatsCacheKey, stats, s.cfg.StatsCacheTTL); err != nil {
		s.logger.Warn("request stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// InvalidateStats drops the cached aggregates after a mutation.
func (s *RequestService) InvalidateStats(ctx context.Context) {
	s.cache.Invalidate(ctx, requestStatsCacheKey)
}

// Departments lists the distinct departments for the filter dropdown.
func (s *RequestService) Departments(ctx context.Context) ([]string, error) {
	return s.requests.Departments(ctx)
}

// ExportFormats supported by Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export renders the filtered unified collection as a CSV or PDF download.
func (s *RequestService) Export(ctx context.Context, q dto.ExportRequestsQuery) (data []byte, contentType, filename string, err error) {
	format := q.Format
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, "", "", appErrors.ErrValidation.WithDetails("format: " + q.Format)
	}

	filter, err := parseFilter(q.ListRequestsQuery)
	if err != nil {
		return nil, "", "", err
	}
	rows, err := s.requests.ExportRows(ctx, filter)
	if err != nil {
		return nil, "", "", fmt.Errorf("collect export rows: %w", err)
	}
	dataset := buildRequestDataset(rows)

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case ExportFormatPDF:
		payload, renderErr := s.pdf.Render(dataset, "Approval Requests")
		if renderErr != nil {
			return nil, "", "", fmt.Errorf("render pdf export: %w", renderErr)
		}
		return payload, "application/pdf", "requests-" + stamp + ".pdf", nil
	default:
		payload, renderErr := s.csv.Render(dataset)
		if renderErr != nil {
			return nil, "", "", fmt.Errorf("render csv export: %w", renderErr)
		}
		return payload, "text/csv", "requests-" + stamp + ".csv", nil
	}
}

func buildRequestDataset(rows []models.RequestItem) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Title", "Requester", "Department", "Status", "Priority", "Submitted", "Reviewed"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		reviewed := ""
		if row.ReviewedAt != nil {
			reviewed = row.ReviewedAt.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         fmt.Sprintf("%d", row.RequestID),
			"Type":       row.RequestType,
			"Title":      row.Title,
			"Requester":  stringOrEmpty(row.RequesterName),
			"Department": stringOrEmpty(row.Department),
			"Status":     row.Status,
			"Priority":   row.Priority,
			"Submitted":  row.CreatedAt.Format("2006-01-02"),
			"Reviewed":   reviewed,
		})
	}
	return dataset
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
