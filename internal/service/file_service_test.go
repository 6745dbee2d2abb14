package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/internal/registry"
	appErrors "github.com/mcabalar/acadrepo-api/pkg/errors"
	"github.com/mcabalar/acadrepo-api/pkg/storage"
)

func newFileFixture(t *testing.T) (*FileService, *resourceStoreStub, *storage.LocalStorage) {
	t.Helper()
	store := newResourceStoreStub()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewTokenSigner("test-secret", time.Minute)
	return NewFileService(store, files, signer, nil), store, files
}

func storedResearch(t *testing.T, store *resourceStoreStub, files *storage.LocalStorage, id int64, content string) *models.Resource {
	t.Helper()
	_, err := files.SaveStream("research/paper.pdf", strings.NewReader(content))
	require.NoError(t, err)

	filePath := "research/paper.pdf"
	res := &models.Resource{
		ID:       id,
		Kind:     registry.KindResearch,
		Title:    "Stored Paper",
		OwnerID:  2,
		Status:   models.StatusApproved,
		Active:   true,
		FilePath: &filePath,
	}
	store.put(res)
	return res
}

func TestFileServiceTokenRoundTrip(t *testing.T) {
	svc, store, files := newFileFixture(t)
	storedResearch(t, store, files, 7, "pdf-bytes")

	token, err := svc.DownloadToken(context.Background(), "research", 7)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	require.True(t, token.ExpiresAt.After(time.Now()))

	download, err := svc.Download(context.Background(), token.Token)
	require.NoError(t, err)
	defer download.File.Close()

	require.Equal(t, "paper.pdf", download.Filename)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(body))
	require.EqualValues(t, len("pdf-bytes"), download.SizeBytes)
}

func TestFileServiceTokenForMissingResource(t *testing.T) {
	svc, _, _ := newFileFixture(t)

	_, err := svc.DownloadToken(context.Background(), "research", 99)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFileServiceTokenForKindWithoutFiles(t *testing.T) {
	svc, _, _ := newFileFixture(t)

	_, err := svc.DownloadToken(context.Background(), "class", 1)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFileServiceDownloadDiesWithRow(t *testing.T) {
	svc, store, files := newFileFixture(t)
	storedResearch(t, store, files, 7, "pdf-bytes")

	token, err := svc.DownloadToken(context.Background(), "research", 7)
	require.NoError(t, err)

	delete(store.resources, key(registry.KindResearch, 7))

	_, err = svc.Download(context.Background(), token.Token)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFileServiceDownloadRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newFileFixture(t)

	_, err := svc.Download(context.Background(), "not.a.real.token")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
