package middleware

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/respond"
)

const photoKey contextKey = "photo"

// multipartOverhead is the room left for boundaries and part headers.
const multipartOverhead = 64 << 10

var (
	allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	photoFields       = []string{"foto", "photo"}
)

type PhotoUploadOptions struct {
	MaxBytes int64
	// Policy is config.UploadStrict or config.UploadLenient. Lenient lets
	// requests without a file through to the handler.
	Policy string
}

// PhotoUpload validates a single multipart image and stores it in the
// request context. Rejected uploads never reach the handler.
func PhotoUpload(opts PhotoUploadOptions, rs *respond.Responder) func(http.Handler) http.Handler {
	maxMB := opts.MaxBytes / (1024 * 1024)
	tooLarge := apperror.BadUpload(fmt.Sprintf("file too large, maximum size is %dMB", maxMB))
	lenient := opts.Policy == config.UploadLenient

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := opts.MaxBytes + multipartOverhead
			if r.ContentLength > limit {
				rs.Error(w, r, tooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)

			if err := r.ParseMultipartForm(opts.MaxBytes); err != nil {
				var maxErr *http.MaxBytesError
				switch {
				case errors.As(err, &maxErr):
					rs.Error(w, r, tooLarge)
				case lenient:
					next.ServeHTTP(w, r)
				default:
					rs.Error(w, r, apperror.BadUpload("expected a multipart/form-data body"))
				}
				return
			}
			defer r.MultipartForm.RemoveAll()

			photo, err := readPhoto(r, opts.MaxBytes)
			if err != nil {
				if lenient && errors.Is(err, errNoPhoto) {
					next.ServeHTTP(w, r)
					return
				}
				if errors.Is(err, errTooLarge) {
					err = tooLarge
				}
				rs.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), photoKey, photo)))
		})
	}
}

var (
	errNoPhoto  = errors.New("no photo uploaded")
	errTooLarge = errors.New("file too large")
)

func readPhoto(r *http.Request, maxBytes int64) (*models.PhotoUpload, error) {
	for _, field := range photoFields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, apperror.BadUpload("could not read uploaded file")
		}
		defer file.Close()

		if header.Size > maxBytes {
			return nil, errTooLarge
		}
		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			return nil, apperror.BadUpload("could not read uploaded file")
		}
		if int64(len(data)) > maxBytes {
			return nil, errTooLarge
		}
		if len(data) == 0 {
			return nil, noPhoto()
		}

		declared, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
		if !mimetype.EqualsAny(declared, allowedImageTypes...) {
			return nil, apperror.BadUpload("only JPEG, PNG, GIF and WebP images are allowed")
		}
		sniffed := mimetype.Detect(data)
		if !mimetype.EqualsAny(sniffed.String(), allowedImageTypes...) {
			return nil, apperror.BadUpload("file content is not a supported image")
		}

		return &models.PhotoUpload{
			Data:        data,
			Filename:    header.Filename,
			ContentType: strings.ToLower(declared),
		}, nil
	}
	return nil, noPhoto()
}

// noPhoto is a BadUpload that still matches errNoPhoto.
func noPhoto() error {
	return &apperror.Error{Kind: apperror.KindBadUpload, Message: "no photo uploaded", Err: errNoPhoto}
}

// GetPhotoUpload returns the validated upload, or nil when the lenient
// policy let a request without a file through.
func GetPhotoUpload(ctx context.Context) *models.PhotoUpload {
	photo, _ := ctx.Value(photoKey).(*models.PhotoUpload)
	return photo
}
