package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
)

type archiveReader interface {
	List(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedItem, error)
	Count(ctx context.Context, filter models.ArchiveFilter) (int, error)
	Stats(ctx context.Context) (*models.ArchiveStats, error)
}

// ArchiveService serves the archived-items browser and its dashboard stats.
type ArchiveService struct {
	archive archiveReader
	logger  *zap.Logger
}

// NewArchiveService constructs the service.
func NewArchiveService(archive archiveReader, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{archive: archive, logger: logger}
}

// List returns one page of archived items. A kind token narrows the listing
// and is resolved through the registry so synonyms work here too.
func (s *ArchiveService) List(ctx context.Context, q dto.ListArchiveQuery) (*dto.ListArchiveResponse, error) {
	filter := models.ArchiveFilter{
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.Kind != "" {
		d, err := registry.Resolve(q.Kind)
		if err != nil {
			return nil, err
		}
		filter.ItemType = d.Kind
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	total, err := s.archive.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count archived items: %w", err)
	}
	items, err := s.archive.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list archived items: %w", err)
	}

	return &dto.ListArchiveResponse{
		Items: items,
		Pagination: models.Pagination{
			CurrentPage: filter.Page,
			PerPage:     filter.PageSize,
			Total:       total,
			TotalPages:  int(math.Ceil(float64(total) / float64(filter.PageSize))),
		},
	}, nil
}

// Stats returns the archive dashboard aggregates.
func (s *ArchiveService) Stats(ctx context.Context) (*models.ArchiveStats, error) {
	return s.archive.Stats(ctx)
}
