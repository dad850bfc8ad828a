package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/middleware"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/respond"
)

// ProfileService is implemented by *services.ProfileService.
type ProfileService interface {
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)
	GetMyProfile(ctx context.Context, identity models.Identity) (*models.Profile, error)
	ProfileExists(ctx context.Context, ownerID string) (bool, error)
	UpdateProfile(ctx context.Context, identity models.Identity, ownerID string, raw map[string]any) (*models.Profile, error)
	UpdateMyProfile(ctx context.Context, identity models.Identity, raw map[string]any) (*models.Profile, error)
	UploadProfilePhoto(ctx context.Context, identity models.Identity, photo *models.PhotoUpload) (*models.PhotoResult, error)
}

type ProfileHandler struct {
	profiles ProfileService
	rs       *respond.Responder
	timeout  time.Duration
}

func NewProfileHandler(profiles ProfileService, rs *respond.Responder, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, rs: rs, timeout: timeout}
}

func (h *ProfileHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.GetMyProfile(ctx, identity)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

func (h *ProfileHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	raw, err := decodeObject(w, r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.UpdateMyProfile(ctx, identity, raw)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, models.NewMessageResponse("profile updated", prof))
}

func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.profiles.UploadProfilePhoto(ctx, identity, middleware.GetPhotoUpload(r.Context()))
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, models.NewMessageResponse("profile photo updated", res))
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.GetProfile(ctx, chi.URLParam(r, "ownerId"))
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// HeadProfile answers 200 or 404 without a body.
func (h *ProfileHandler) HeadProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	exists, err := h.profiles.ProfileExists(ctx, chi.URLParam(r, "ownerId"))
	switch {
	case err != nil:
		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.Internal(err)
		}
		w.WriteHeader(appErr.HTTPStatus())
	case !exists:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	raw, err := decodeObject(w, r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	prof, err := h.profiles.UpdateProfile(ctx, identity, chi.URLParam(r, "ownerId"), raw)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, models.NewMessageResponse("profile updated", prof))
}

func (h *ProfileHandler) identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.rs.Error(w, r, apperror.Unauthenticated("unauthorized"))
	}
	return identity, ok
}
