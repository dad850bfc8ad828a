package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/logging"
	"github.com/petjoyful/profile-service/internal/middleware"
	"github.com/petjoyful/profile-service/internal/mocks"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/respond"
	"github.com/petjoyful/profile-service/internal/services"
)

const secret = "router-secret"

type testServer struct {
	store   *mocks.MockProfileStore
	blobs   *mocks.MockBlobStore
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := mocks.NewMockProfileStore(t)
	blobs := mocks.NewMockBlobStore(t)
	logger := logging.NewNop()

	svc := services.NewProfileService(store, blobs, services.ProfileServiceOptions{
		Folder: "test",
		Logger: logger,
	})
	handler := NewRouter(RouterConfig{
		Profiles:       svc,
		Verifier:       middleware.NewJWTVerifier(secret),
		Responder:      respond.New(false, logger),
		Logger:         logger,
		Upload:         middleware.PhotoUploadOptions{MaxBytes: 5 * 1024 * 1024, Policy: config.UploadStrict},
		RequestTimeout: 5 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{store: store, blobs: blobs, handler: handler}
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := middleware.IssueToken(secret, models.Identity{Subject: models.MustOwnerID(subject)}, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Errors  []apperror.FieldError `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func jsonRequest(method, target, body, auth string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(jsonRequest(http.MethodGet, "/api/profile/me", "", "Bearer forged"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_UpdateOtherUsersProfileIsForbidden(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(jsonRequest(http.MethodPut, "/api/profile/uid-2", `{"displayName":"Mallory"}`, bearer(t, "uid-1")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
	s.store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_UpdateOwnProfileByID(t *testing.T) {
	s := newTestServer(t)
	owner := models.MustOwnerID("65f1a2b3c4d5e6f708192a3b")
	prof := models.NewProfile(owner, time.Now())
	prof.DisplayName = "Ana"

	s.store.On("Upsert", mock.Anything, owner, models.FieldSet{models.FieldDisplayName: "Ana"}).Return(prof, nil).Once()

	rec := s.do(jsonRequest(http.MethodPut, "/api/profile/65F1A2B3C4D5E6F708192A3B",
		`{"displayName":"Ana","ownerId":"someone"}`, bearer(t, owner.String())))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var got models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Ana", got.DisplayName)
	assert.True(t, got.OwnerID.Equal(owner))
}

func TestRouter_GetMissingProfile(t *testing.T) {
	s := newTestServer(t)
	s.store.On("FindByOwner", mock.Anything, models.MustOwnerID("uid-missing")).
		Return(nil, apperror.NotFound("profile")).Once()

	rec := s.do(jsonRequest(http.MethodGet, "/api/profile/uid-missing", "", bearer(t, "uid-1")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	s.store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_HeadProfile(t *testing.T) {
	s := newTestServer(t)
	s.store.On("Exists", mock.Anything, models.MustOwnerID("uid-1")).Return(true, nil).Once()
	s.store.On("Exists", mock.Anything, models.MustOwnerID("uid-2")).Return(false, nil).Once()

	rec := s.do(jsonRequest(http.MethodHead, "/api/profile/uid-1", "", bearer(t, "uid-9")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec = s.do(jsonRequest(http.MethodHead, "/api/profile/uid-2", "", bearer(t, "uid-9")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UpdateMyProfile(t *testing.T) {
	t.Run("validation errors are listed", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(jsonRequest(http.MethodPut, "/api/profile/me", `{"state":"Sao Paulo","cep":"1"}`, bearer(t, "uid-1")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "invalid data", env.Message)
		assert.Len(t, env.Errors, 2)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(jsonRequest(http.MethodPut, "/api/profile/me", `{"state":`, bearer(t, "uid-1")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "body", env.Errors[0].Field)
	})

	t.Run("nothing to update", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(jsonRequest(http.MethodPut, "/api/profile/me", `{"accountType":"clinic"}`, bearer(t, "uid-1")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("numeric number field", func(t *testing.T) {
		s := newTestServer(t)
		owner := models.MustOwnerID("uid-1")
		s.store.On("Upsert", mock.Anything, owner, models.FieldSet{models.FieldNumber: "42"}).
			Return(models.NewProfile(owner, time.Now()), nil).Once()

		rec := s.do(jsonRequest(http.MethodPut, "/api/profile/me", `{"numero":42}`, bearer(t, "uid-1")))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func photoRequest(t *testing.T, data []byte, auth string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="foto"; filename="me.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile/me/photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", auth)
	return req
}

func jpegHeader(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func TestRouter_UploadPhoto(t *testing.T) {
	t.Run("six megabytes never reaches the blob store", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(photoRequest(t, jpegHeader(6*1024*1024), bearer(t, "uid-1")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
		s.store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		owner := models.MustOwnerID("uid-1")
		data := jpegHeader(1024)
		blob := &services.BlobResult{URL: "https://cdn.example/test/p.jpg", ID: "test/p"}

		s.blobs.On("Upload", mock.Anything, mock.MatchedBy(func(p models.PhotoUpload) bool {
			return bytes.Equal(p.Data, data) && p.ContentType == "image/jpeg"
		}), "test").Return(blob, nil).Once()
		s.store.On("Upsert", mock.Anything, owner, models.FieldSet{models.FieldPhotoURL: blob.URL}).
			Return(models.NewProfile(owner, time.Now()), nil).Once()

		rec := s.do(photoRequest(t, data, bearer(t, "uid-1")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res models.PhotoResult
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
		assert.Equal(t, blob.URL, res.PhotoURL)
		assert.Equal(t, blob.ID, res.BlobID)
	})
}

func TestRouter_ServesLocalUploads(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	blobs, err := services.NewLocalBlobStore(dir, "/uploads")
	require.NoError(t, err)
	res, err := blobs.Upload(context.Background(), models.PhotoUpload{Data: buf.Bytes()}, "profiles")
	require.NoError(t, err)

	handler := NewRouter(RouterConfig{
		Verifier:  middleware.NewJWTVerifier(secret),
		Logger:    logging.NewNop(),
		UploadDir: dir,
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, res.URL, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, buf.Bytes(), rec.Body.Bytes())
}
