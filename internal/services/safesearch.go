package services

import (
	"context"
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
)

// PhotoScreener rejects images before they reach the blob store. Screen
// returns a BadUpload error for rejected images.
type PhotoScreener interface {
	Screen(ctx context.Context, photo models.PhotoUpload) error
}

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
	Spoof    string
	Medical  string
}

func isUnsafeLikelyOrHigher(l string) bool {
	return l == "LIKELY" || l == "VERY_LIKELY"
}

func (r *SafeSearchResult) IsUnsafe() bool {
	return isUnsafeLikelyOrHigher(r.Adult) || isUnsafeLikelyOrHigher(r.Violence) || isUnsafeLikelyOrHigher(r.Racy)
}

// SafeSearchScreener runs Vision SAFE_SEARCH_DETECTION on the uploaded bytes.
type SafeSearchScreener struct {
	svc *vision.Service
}

// NewSafeSearchScreener uses Application Default Credentials unless opts say otherwise.
func NewSafeSearchScreener(ctx context.Context, opts ...option.ClientOption) (*SafeSearchScreener, error) {
	opts = append([]option.ClientOption{option.WithScopes(vision.CloudPlatformScope)}, opts...)
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "vision client")
	}
	return &SafeSearchScreener{svc: svc}, nil
}

func (s *SafeSearchScreener) Detect(ctx context.Context, data []byte) (*SafeSearchResult, error) {
	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
		Features: []*vision.Feature{
			{Type: "SAFE_SEARCH_DETECTION"},
		},
	}

	resp, err := s.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "safesearch annotate")
	}
	if len(resp.Responses) == 0 {
		return &SafeSearchResult{}, nil
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return nil, errors.Newf("safesearch: %s", r.Error.Message)
	}
	ss := r.SafeSearchAnnotation
	if ss == nil {
		return &SafeSearchResult{}, nil
	}

	return &SafeSearchResult{
		Adult:    ss.Adult,
		Violence: ss.Violence,
		Racy:     ss.Racy,
		Spoof:    ss.Spoof,
		Medical:  ss.Medical,
	}, nil
}

func (s *SafeSearchScreener) Screen(ctx context.Context, photo models.PhotoUpload) error {
	res, err := s.Detect(ctx, photo.Data)
	if err != nil {
		return apperror.Upstream(err, "failed to screen photo")
	}
	if res.IsUnsafe() {
		return apperror.BadUpload("image rejected: violates community guidelines")
	}
	return nil
}
