package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	AuthJWT      = "jwt"
	AuthFirebase = "firebase"

	StoreMongo = "mongo"
	StoreFile  = "file"

	BlobCloudinary = "cloudinary"
	BlobGCS        = "gcs"
	BlobLocal      = "local"

	UploadStrict  = "strict"
	UploadLenient = "lenient"
)

// devJWTSecret is only accepted outside production.
const devJWTSecret = "default_secret"

var defaultCORSOrigins = []string{
	"https://pet-joyful-projeto-integrador-next-js-ay4p-kzbr9m9bu.vercel.app",
	"https://edicao-perfil-microservice.onrender.com",
	"http://localhost:3000",
	"http://localhost:5000",
	"http://localhost:3004",
}

type Config struct {
	ServerAddress  string
	AppEnv         string
	LogLevel       string
	RequestTimeout time.Duration

	Auth  AuthConfig
	Mongo MongoConfig

	StoreDriver string
	DataDir     string

	Blob BlobConfig

	MaxUploadSizeMB int64
	UploadPolicy    string
	PhotoSafeSearch bool

	CORSAllowedOrigins []string
}

type AuthConfig struct {
	Provider                string
	JWTSecret               string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
}

type MongoConfig struct {
	URI      string
	Database string
	TLS      bool
}

type BlobConfig struct {
	Driver string
	Folder string

	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	GCSBucket          string
	GCSCredentialsJSON string

	UploadDir     string
	PublicBaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: serverAddress(),
		AppEnv:        strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Auth: AuthConfig{
			Provider:                strings.ToLower(getEnv("AUTH_PROVIDER", AuthJWT)),
			JWTSecret:               os.Getenv("JWT_SECRET"),
			FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "petjoyful"),
		},
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		DataDir:     getEnv("DATA_DIR", "./data"),
		Blob: BlobConfig{
			Driver:              strings.ToLower(getEnv("BLOB_DRIVER", BlobCloudinary)),
			Folder:              getEnv("UPLOAD_FOLDER", "pet-joyful/profiles"),
			CloudinaryURL:       os.Getenv("CLOUDINARY_URL"),
			CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			GCSBucket:           os.Getenv("GCS_BUCKET"),
			GCSCredentialsJSON:  os.Getenv("GCS_CREDENTIALS_JSON"),
			UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL:       strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		},
		UploadPolicy:       strings.ToLower(getEnv("UPLOAD_POLICY", UploadStrict)),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Mongo.TLS, err = getBool("MONGO_TLS", false); err != nil {
		return nil, err
	}
	if cfg.PhotoSafeSearch, err = getBool("PHOTO_SAFESEARCH", false); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSizeMB, err = getInt64("MAX_UPLOAD_SIZE_MB", 5); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && cfg.AppEnv != EnvProduction {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !oneOf(c.AppEnv, EnvDevelopment, EnvProduction, EnvTest) {
		return fmt.Errorf("invalid APP_ENV %q", c.AppEnv)
	}
	if !oneOf(strings.ToLower(c.LogLevel), "debug", "info", "warn", "warning", "error") {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.Auth.Provider {
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	case AuthFirebase:
		if c.Auth.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER %q", c.Auth.Provider)
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DB are required when STORE_DRIVER=mongo")
		}
	case StoreFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when STORE_DRIVER=file")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Blob.Driver {
	case BlobCloudinary:
		hasParams := c.Blob.CloudinaryCloudName != "" && c.Blob.CloudinaryAPIKey != "" && c.Blob.CloudinaryAPISecret != ""
		if c.Blob.CloudinaryURL == "" && !hasParams {
			return fmt.Errorf("CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME/API_KEY/API_SECRET are required when BLOB_DRIVER=cloudinary")
		}
	case BlobGCS:
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when BLOB_DRIVER=gcs")
		}
	case BlobLocal:
		if c.Blob.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required when BLOB_DRIVER=local")
		}
	default:
		return fmt.Errorf("invalid BLOB_DRIVER %q", c.Blob.Driver)
	}

	if !oneOf(c.UploadPolicy, UploadStrict, UploadLenient) {
		return fmt.Errorf("invalid UPLOAD_POLICY %q", c.UploadPolicy)
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

func serverAddress() string {
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		return addr
	}
	return ":" + getEnv("PORT", "3004")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
