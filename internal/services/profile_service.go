package services

import (
	"context"
	"time"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/logging"
	"github.com/petjoyful/profile-service/internal/models"
)

const defaultPhotoFolder = "pet-joyful/profiles"

// compensationTimeout bounds the blob delete issued after a failed upsert.
const compensationTimeout = 10 * time.Second

type ProfileServiceOptions struct {
	// Folder is the blob store folder for profile photos.
	Folder string
	// AllowList overrides models.EditableFields.
	AllowList []string
	// Screener is optional.
	Screener  PhotoScreener
	Sanitizer *FieldSanitizer
	Logger    *logging.Logger
}

// ProfileService implements the profile operations on top of a ProfileStore
// and a BlobStore.
type ProfileService struct {
	store     ProfileStore
	blobs     BlobStore
	screener  PhotoScreener
	sanitizer *FieldSanitizer
	allow     []string
	folder    string
	logger    *logging.Logger
}

func NewProfileService(store ProfileStore, blobs BlobStore, opts ProfileServiceOptions) *ProfileService {
	svc := &ProfileService{
		store:     store,
		blobs:     blobs,
		screener:  opts.Screener,
		sanitizer: opts.Sanitizer,
		allow:     opts.AllowList,
		folder:    opts.Folder,
		logger:    opts.Logger,
	}
	if svc.sanitizer == nil {
		svc.sanitizer = NewFieldSanitizer(nil)
	}
	if len(svc.allow) == 0 {
		svc.allow = models.EditableFields
	}
	if svc.folder == "" {
		svc.folder = defaultPhotoFolder
	}
	if svc.logger == nil {
		svc.logger = logging.Default()
	}
	svc.logger = svc.logger.With("component", "profile_service")
	return svc
}

func (s *ProfileService) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	owner, err := parseTarget(ownerID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, owner)
}

func (s *ProfileService) GetMyProfile(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	if identity.Subject.IsZero() {
		return nil, apperror.Unauthenticated("token has no subject")
	}
	return s.find(ctx, identity.Subject)
}

// ProfileExists never creates a profile.
func (s *ProfileService) ProfileExists(ctx context.Context, ownerID string) (bool, error) {
	owner, err := parseTarget(ownerID)
	if err != nil {
		return false, err
	}
	ok, err := s.store.Exists(ctx, owner)
	if err != nil {
		return false, s.storeError(err, "exists", owner)
	}
	return ok, nil
}

// UpdateProfile applies raw to ownerID's profile. The caller must own it; a
// mismatch is rejected before the store is touched.
func (s *ProfileService) UpdateProfile(ctx context.Context, identity models.Identity, ownerID string, raw map[string]any) (*models.Profile, error) {
	owner, err := AuthorizeOwner(identity, ownerID)
	if err != nil {
		s.logger.Warn("profile update rejected", "subject", identity.Subject, "target", ownerID, "error", err)
		return nil, err
	}
	return s.update(ctx, identity, owner, raw)
}

func (s *ProfileService) UpdateMyProfile(ctx context.Context, identity models.Identity, raw map[string]any) (*models.Profile, error) {
	if identity.Subject.IsZero() {
		return nil, apperror.Unauthenticated("token has no subject")
	}
	return s.update(ctx, identity, identity.Subject, raw)
}

// UploadProfilePhoto stores the photo and points the caller's photoUrl at
// it. If the profile write fails the new blob is deleted again.
func (s *ProfileService) UploadProfilePhoto(ctx context.Context, identity models.Identity, photo *models.PhotoUpload) (*models.PhotoResult, error) {
	if identity.Subject.IsZero() {
		return nil, apperror.Unauthenticated("token has no subject")
	}
	if photo == nil || len(photo.Data) == 0 {
		return nil, apperror.BadUpload("no photo uploaded")
	}

	if s.screener != nil {
		if err := s.screener.Screen(ctx, *photo); err != nil {
			s.logger.Warn("photo screening failed", "owner_id", identity.Subject, "error", err)
			if _, ok := apperror.As(err); ok {
				return nil, err
			}
			return nil, apperror.Upstream(err, "failed to screen photo")
		}
	}

	blob, err := s.blobs.Upload(ctx, *photo, s.folder)
	if err != nil {
		s.logger.Error("photo upload failed", "owner_id", identity.Subject, "error", err)
		return nil, apperror.Upstream(err, "failed to upload photo")
	}

	if _, err := s.store.Upsert(ctx, identity.Subject, models.FieldSet{models.FieldPhotoURL: blob.URL}); err != nil {
		s.compensate(ctx, blob.ID)
		return nil, s.storeError(err, "upsert photo", identity.Subject)
	}

	s.logger.Info("profile photo updated", "owner_id", identity.Subject, "blob_id", blob.ID, "width", blob.Width, "height", blob.Height)
	return &models.PhotoResult{PhotoURL: blob.URL, BlobID: blob.ID}, nil
}

func (s *ProfileService) find(ctx context.Context, owner models.OwnerID) (*models.Profile, error) {
	prof, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		return nil, s.storeError(err, "find", owner)
	}
	return prof, nil
}

func (s *ProfileService) update(ctx context.Context, identity models.Identity, owner models.OwnerID, raw map[string]any) (*models.Profile, error) {
	fields, err := s.sanitizer.Sanitize(raw, s.allow)
	if err != nil {
		return nil, err
	}

	if email := s.tokenEmail(identity); email != "" {
		fields[models.FieldEmail] = email
	}

	prof, err := s.store.Upsert(ctx, owner, fields)
	if err != nil {
		return nil, s.storeError(err, "upsert", owner)
	}
	s.logger.Info("profile updated", "owner_id", owner, "fields", len(fields))
	return prof, nil
}

// tokenEmail returns the normalized token email, or "" when it is missing or invalid.
func (s *ProfileService) tokenEmail(identity models.Identity) string {
	if identity.Email == "" {
		return ""
	}
	fields, err := s.sanitizer.Sanitize(map[string]any{models.FieldEmail: identity.Email}, []string{models.FieldEmail})
	if err != nil {
		s.logger.Warn("ignoring token email", "owner_id", identity.Subject, "error", err)
		return ""
	}
	email, _ := fields[models.FieldEmail].(string)
	return email
}

func (s *ProfileService) compensate(ctx context.Context, blobID string) {
	if blobID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.blobs.Delete(ctx, blobID); err != nil {
		s.logger.Error("orphaned photo blob", "blob_id", blobID, "error", err)
	}
}

// storeError passes typed errors through and turns everything else into an
// upstream failure.
func (s *ProfileService) storeError(err error, op string, owner models.OwnerID) error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	s.logger.Error("profile store failure", "op", op, "owner_id", owner, "error", err)
	return apperror.Upstream(err, "profile store unavailable")
}

func parseTarget(ownerID string) (models.OwnerID, error) {
	owner, err := models.ParseOwnerID(ownerID)
	if err != nil {
		return models.OwnerID{}, apperror.Validation([]apperror.FieldError{
			{Field: models.FieldOwnerID, Message: "is required"},
		})
	}
	return owner, nil
}
