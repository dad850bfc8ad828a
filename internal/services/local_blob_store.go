package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/petjoyful/profile-service/internal/models"
)

// LocalBlobStore saves photos under uploadDir and serves them from urlPrefix.
type LocalBlobStore struct {
	uploadDir string
	urlPrefix string
}

// NewLocalBlobStore creates uploadDir if needed. urlPrefix is prepended to
// the object path, e.g. "/uploads" or "https://cdn.example.com/uploads".
func NewLocalBlobStore(uploadDir, urlPrefix string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", uploadDir)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &LocalBlobStore{
		uploadDir: uploadDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

func (s *LocalBlobStore) Upload(ctx context.Context, photo models.PhotoUpload, folder string) (*BlobResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := filepath.ToSlash(filepath.Join(cleanFolder(folder), uuid.NewString()+imageExtension(photo.Data)))
	filePath, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create folder")
	}
	if err := os.WriteFile(filePath, photo.Data, 0o644); err != nil {
		os.Remove(filePath)
		return nil, errors.Wrap(err, "save file")
	}

	width, height := imageSize(photo.Data)
	return &BlobResult{
		URL:    s.urlPrefix + "/" + id,
		ID:     id,
		Width:  width,
		Height: height,
	}, nil
}

func (s *LocalBlobStore) Delete(_ context.Context, id string) error {
	filePath, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete file %s", id)
	}
	return nil
}

// pathFor resolves id inside uploadDir and refuses anything that escapes it.
func (s *LocalBlobStore) pathFor(id string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(id))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf("invalid blob id %q", id)
	}
	return filepath.Join(s.uploadDir, clean), nil
}

func cleanFolder(folder string) string {
	folder = strings.Trim(filepath.ToSlash(folder), "/")
	var parts []string
	for _, p := range strings.Split(folder, "/") {
		if p == "" || p == "." || p == ".." {
			continue
		}
		parts = append(parts, p)
	}
	return filepath.Join(parts...)
}
