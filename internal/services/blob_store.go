package services

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/petjoyful/profile-service/internal/models"
)

// BlobResult describes a stored image.
type BlobResult struct {
	URL    string
	ID     string
	Width  int
	Height int
}

// BlobStore is the external image host.
type BlobStore interface {
	Upload(ctx context.Context, photo models.PhotoUpload, folder string) (*BlobResult, error)
	Delete(ctx context.Context, id string) error
}

// imageExtension picks the file extension from the sniffed content type.
func imageExtension(data []byte) string {
	switch mimetype.Detect(data).String() {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}

// imageSize reads the header only; zero values mean the format is unknown.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
