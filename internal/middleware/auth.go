package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/respond"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier validates a bearer credential. Invalid or expired tokens
// yield an apperror Forbidden.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// subjectClaims are tried in order; the first non-empty one wins.
var subjectClaims = []string{"userId", "id", "sub"}

// JWTVerifier checks HMAC-signed JWTs.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), now: time.Now}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, apperror.Forbidden("invalid or expired token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, apperror.Forbidden("invalid token claims", nil)
	}

	var subject string
	for _, name := range subjectClaims {
		if subject = claimString(claims, name); subject != "" {
			break
		}
	}
	owner, err := models.ParseOwnerID(subject)
	if err != nil {
		return models.Identity{}, apperror.Forbidden("token has no subject", err)
	}

	role := claimString(claims, "role")
	if role == "" {
		role = claimString(claims, "tipo")
	}
	return models.Identity{
		Subject: owner,
		Email:   claimString(claims, "email"),
		Role:    role,
	}, nil
}

// IssueToken mints an HS256 token accepted by JWTVerifier.
func IssueToken(secret string, identity models.Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"userId": identity.Subject.String(),
		"sub":    identity.Subject.String(),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}
	if identity.Role != "" {
		claims["role"] = identity.Role
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Authenticate requires "Authorization: Bearer <token>". A missing or
// malformed header is 401; a token the verifier rejects is 403.
func Authenticate(verifier TokenVerifier, rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				rs.Error(w, r, apperror.Unauthenticated("authorization header required"))
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				rs.Error(w, r, apperror.Unauthenticated("invalid authorization header format"))
				return
			}

			identity, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				if _, ok := apperror.As(err); !ok {
					err = apperror.Forbidden("invalid or expired token", err)
				}
				rs.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the authenticated caller from context
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok && !identity.Subject.IsZero()
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	identity, _ := GetIdentity(ctx)
	return identity.Subject.String()
}

func GetUserEmail(ctx context.Context) string {
	identity, _ := GetIdentity(ctx)
	return identity.Email
}
