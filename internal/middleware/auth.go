package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stillframe/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// actorIDKey is the context key for the authenticated user's id.
const actorIDKey contextKey = "actorID"

// ActorID returns the verified user id from the request context, or "" for an
// anonymous request. Handlers pass this into the post service as the acting
// identity; the service itself never reads request state.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// WithActorID returns a context carrying the verified user id.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// RequireAuth returns middleware that validates a Bearer JWT and injects the
// verified user id into the request context. Requests without a valid token
// are rejected.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, err := actorFromHeader(r, jwtSecret)
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActorID(r.Context(), actorID)))
		})
	}
}

// OptionalAuth returns middleware for routes that serve both visitors and
// owners. A valid token injects the user id; a missing or invalid token
// leaves the request anonymous instead of rejecting it.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, err := actorFromHeader(r, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActorID(r.Context(), actorID)))
		})
	}
}

// authError is a fixed-message error so token problems never leak parser detail.
type authError string

func (e authError) Error() string { return string(e) }

const (
	errNoHeader     authError = "authorization header required"
	errBadHeader    authError = "invalid authorization header format"
	errInvalidToken authError = "invalid or expired token"
)

// actorFromHeader validates the Bearer token and extracts the subject claim.
func actorFromHeader(r *http.Request, jwtSecret string) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errNoHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errBadHeader
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}

	actorID, _ := claims["sub"].(string)
	if actorID == "" {
		return "", errInvalidToken
	}
	return actorID, nil
}
