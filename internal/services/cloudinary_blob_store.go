package services

import (
	"bytes"
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cockroachdb/errors"

	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/models"
)

// photoTransformation limits stored photos to 500x500 JPEG.
const photoTransformation = "c_limit,w_500,h_500/q_auto/f_jpg"

// cloudinaryUploader is the subset of *uploader.API used here.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type CloudinaryBlobStore struct {
	api cloudinaryUploader
}

func NewCloudinaryBlobStore(cfg config.BlobConfig) (*CloudinaryBlobStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.CloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary client")
	}
	cld.Config.URL.Secure = true
	return &CloudinaryBlobStore{api: &cld.Upload}, nil
}

func (s *CloudinaryBlobStore) Upload(ctx context.Context, photo models.PhotoUpload, folder string) (*BlobResult, error) {
	resp, err := s.api.Upload(ctx, bytes.NewReader(photo.Data), uploader.UploadParams{
		Folder:         folder,
		ResourceType:   "image",
		Transformation: photoTransformation,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary upload")
	}
	if resp.Error.Message != "" {
		return nil, errors.Newf("cloudinary upload: %s", resp.Error.Message)
	}
	return &BlobResult{
		URL:    resp.SecureURL,
		ID:     resp.PublicID,
		Width:  resp.Width,
		Height: resp.Height,
	}, nil
}

func (s *CloudinaryBlobStore) Delete(ctx context.Context, id string) error {
	resp, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: id, ResourceType: "image"})
	if err != nil {
		return errors.Wrapf(err, "cloudinary destroy %s", id)
	}
	if resp.Error.Message != "" {
		return errors.Newf("cloudinary destroy %s: %s", id, resp.Error.Message)
	}
	return nil
}
