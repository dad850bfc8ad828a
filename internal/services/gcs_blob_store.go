package services

import (
	"context"
	"fmt"
	"net/url"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/models"
)

// GCSBlobStore writes photos to a Cloud Storage (Firebase Storage) bucket.
type GCSBlobStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewGCSBlobStore uses GCS_CREDENTIALS_JSON when set and Application Default
// Credentials otherwise.
func NewGCSBlobStore(ctx context.Context, cfg config.BlobConfig) (*GCSBlobStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GCSCredentialsJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "storage client")
	}
	return &GCSBlobStore{
		client:        client,
		bucket:        cfg.GCSBucket,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

func (s *GCSBlobStore) Upload(ctx context.Context, photo models.PhotoUpload, folder string) (*BlobResult, error) {
	name := path.Join(folder, uuid.NewString()+imageExtension(photo.Data))
	token := uuid.NewString()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimetype.Detect(photo.Data).String()
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
		"originalFilename":              photo.Filename,
	}
	if _, err := w.Write(photo.Data); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "write object %s", name)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "close object %s", name)
	}

	width, height := imageSize(photo.Data)
	return &BlobResult{
		URL:    s.objectURL(name, token),
		ID:     name,
		Width:  width,
		Height: height,
	}, nil
}

func (s *GCSBlobStore) Delete(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(id).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return errors.Wrapf(err, "delete object %s", id)
}

func (s *GCSBlobStore) objectURL(name, token string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + name
	}
	return firebaseDownloadURL(s.bucket, name, token)
}

func firebaseDownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
