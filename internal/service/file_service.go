package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mcabalar/acadrepo-api/internal/dto"
	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
)

type resourceLoader interface {
	GetByID(ctx context.Context, d registry.Descriptor, id int64) (*models.Resource, error)
}

type fileOpener interface {
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(ref, relPath string) (string, time.Time, error)
	Parse(token string) (ref, relPath string, expiresAt time.Time, err error)
}

// FileDownload is an open file stream handed back to the transport layer.
// The caller owns closing File.
type FileDownload struct {
	Filename  string
	SizeBytes int64
	File      *os.File
}

// FileService issues signed download tokens for stored resource files and
// redeems them. Tokens bind the resource reference to its path at issue
// time, so clients never name paths directly.
type FileService struct {
	resources resourceLoader
	files     fileOpener
	signer    downloadSigner
	logger    *zap.Logger
}

// NewFileService constructs the service.
func NewFileService(resources resourceLoader, files fileOpener, signer downloadSigner, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{resources: resources, files: files, signer: signer, logger: logger}
}

// DownloadToken issues a signed token for the resource's stored file.
func (s *FileService) DownloadToken(ctx context.Context, kind string, id int64) (*dto.DownloadTokenResponse, error) {
	d, err := registry.Resolve(kind)
	if err != nil {
		return nil, err
	}
	if !d.HasFile() {
		return nil, appErrors.ErrValidation.WithDetails(fmt.Sprintf("%s carries no files", d.Kind))
	}
	res, err := s.resources.GetByID(ctx, d, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.WithDetails(fmt.Sprintf("%s %d", d.Kind, id))
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, id, err)
	}
	if res.FilePath == nil || *res.FilePath == "" {
		return nil, appErrors.ErrNotFound.WithDetails("resource has no stored file")
	}

	token, expiresAt, err := s.signer.Generate(fmt.Sprintf("%s:%d", d.Kind, id), *res.FilePath)
	if err != nil {
		return nil, fmt.Errorf("sign download token: %w", err)
	}
	return &dto.DownloadTokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Download redeems a token and opens the referenced file. The resource is
// re-checked so tokens die with the row they were issued for.
func (s *FileService) Download(ctx context.Context, token string) (*FileDownload, error) {
	ref, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	kind, id, err := splitRef(ref)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token reference")
	}
	d, err := registry.Resolve(kind)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token reference")
	}
	res, err := s.resources.GetByID(ctx, d, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.WithDetails("resource no longer exists")
		}
		return nil, fmt.Errorf("load %s %d: %w", d.Kind, id, err)
	}
	if res.FilePath == nil || *res.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token no longer valid")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		s.logger.Warn("stored file missing on download",
			zap.String("kind", d.Kind),
			zap.Int64("id", id),
			zap.String("path", relPath),
			zap.Error(err))
		return nil, appErrors.ErrNotFound.WithDetails("stored file is missing")
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return &FileDownload{
		Filename:  filepath.Base(relPath),
		SizeBytes: size,
		File:      file,
	}, nil
}

func splitRef(ref string) (string, int64, error) {
	kind, rawID, found := strings.Cut(ref, ":")
	if !found || kind == "" {
		return "", 0, fmt.Errorf("malformed ref %q", ref)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ref %q", ref)
	}
	return kind, id, nil
}
