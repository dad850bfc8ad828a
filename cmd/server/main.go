package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/handlers"
	"github.com/petjoyful/profile-service/internal/logging"
	"github.com/petjoyful/profile-service/internal/middleware"
	"github.com/petjoyful/profile-service/internal/respond"
	"github.com/petjoyful/profile-service/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(logging.InfoLevel).Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewJSON(level).With("service", "profile-service", "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer logger.Sync()

	ctx := context.Background()
	app, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ServerAddress, "store", cfg.StoreDriver, "blob", cfg.Blob.Driver, "auth", cfg.Auth.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("http server stopped")
}

type app struct {
	handler http.Handler
	closers []func(context.Context) error
}

func (a *app) close(logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close dependency", "error", err)
		}
	}
}

func build(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var store services.ProfileStore
	switch cfg.StoreDriver {
	case config.StoreFile:
		fileStore, err := services.NewFileProfileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	default:
		mongoStore, err := services.NewMongoProfileStore(connectCtx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mongoStore.Close)
		store = mongoStore
	}

	var (
		blobs     services.BlobStore
		uploadDir string
	)
	switch cfg.Blob.Driver {
	case config.BlobLocal:
		prefix := "/uploads"
		if cfg.Blob.PublicBaseURL != "" {
			prefix = cfg.Blob.PublicBaseURL + "/uploads"
		}
		local, err := services.NewLocalBlobStore(cfg.Blob.UploadDir, prefix)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		blobs, uploadDir = local, cfg.Blob.UploadDir
	case config.BlobGCS:
		gcsStore, err := services.NewGCSBlobStore(connectCtx, cfg.Blob)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return gcsStore.Close() })
		blobs = gcsStore
	default:
		cld, err := services.NewCloudinaryBlobStore(cfg.Blob)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		blobs = cld
	}

	var screener services.PhotoScreener
	if cfg.PhotoSafeSearch {
		ss, err := services.NewSafeSearchScreener(connectCtx)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		screener = ss
	}

	var verifier middleware.TokenVerifier
	switch cfg.Auth.Provider {
	case config.AuthFirebase:
		authClient, err := middleware.NewFirebaseAuthClient(connectCtx, middleware.FirebaseAuthConfig{
			ProjectID:       cfg.Auth.FirebaseProjectID,
			CredentialsJSON: cfg.Auth.FirebaseCredentialsJSON,
		})
		if err != nil {
			a.close(logger)
			return nil, err
		}
		verifier = middleware.NewFirebaseVerifier(authClient)
	default:
		verifier = middleware.NewJWTVerifier(cfg.Auth.JWTSecret)
	}

	profiles := services.NewProfileService(store, blobs, services.ProfileServiceOptions{
		Folder:   cfg.Blob.Folder,
		Screener: screener,
		Logger:   logger,
	})

	a.handler = handlers.NewRouter(handlers.RouterConfig{
		Profiles:  profiles,
		Verifier:  verifier,
		Responder: respond.New(cfg.IsDevelopment(), logger),
		Logger:    logger,
		Upload: middleware.PhotoUploadOptions{
			MaxBytes: cfg.MaxUploadBytes(),
			Policy:   cfg.UploadPolicy,
		},
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      uploadDir,
	})
	return a, nil
}
