package middleware

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
)

type FirebaseAuthConfig struct {
	ProjectID string
	// CredentialsJSON is a service account key; empty means Application
	// Default Credentials.
	CredentialsJSON string
}

// NewFirebaseAuthClient initializes the Firebase Admin SDK and returns an Auth client
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (*auth.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "firebase auth client")
	}
	return client, nil
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens; the subject is the Firebase UID.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client idTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return models.Identity{}, apperror.Forbidden("invalid or expired token", err)
	}
	owner, err := models.ParseOwnerID(decoded.UID)
	if err != nil {
		return models.Identity{}, apperror.Forbidden("token has no subject", err)
	}

	identity := models.Identity{Subject: owner}
	if email, ok := decoded.Claims["email"].(string); ok {
		identity.Email = email
	}
	if role, ok := decoded.Claims["role"].(string); ok {
		identity.Role = role
	}
	return identity, nil
}
