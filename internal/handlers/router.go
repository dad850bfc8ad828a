package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/petjoyful/profile-service/internal/logging"
	"github.com/petjoyful/profile-service/internal/middleware"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/respond"
)

type RouterConfig struct {
	Profiles       ProfileService
	Verifier       middleware.TokenVerifier
	Responder      *respond.Responder
	Logger         *logging.Logger
	Upload         middleware.PhotoUploadOptions
	RequestTimeout time.Duration
	AllowedOrigins []string
	// UploadDir is served at /uploads/* when set.
	UploadDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	rs := cfg.Responder
	if rs == nil {
		rs = respond.New(false, cfg.Logger)
	}
	profileHandler := NewProfileHandler(cfg.Profiles, rs, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rs.JSON(w, http.StatusNotFound, models.NewErrorResponse("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rs.JSON(w, http.StatusMethodNotAllowed, models.NewErrorResponse("method not allowed"))
	})

	r.Get("/", status(rs, "profile service is running"))
	r.Get("/health", status(rs, "ok"))

	r.Route("/api/profile", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Verifier, rs))

		r.Get("/me", profileHandler.GetMyProfile)
		r.Put("/me", profileHandler.UpdateMyProfile)
		r.With(middleware.PhotoUpload(cfg.Upload, rs)).Post("/me/photo", profileHandler.UploadPhoto)

		r.Get("/{ownerId}", profileHandler.GetProfile)
		r.Head("/{ownerId}", profileHandler.HeadProfile)
		r.Put("/{ownerId}", profileHandler.UpdateProfile)
	})

	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	return r
}

func status(rs *respond.Responder, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.JSON(w, http.StatusOK, models.NewMessageResponse(message, map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}))
	}
}
