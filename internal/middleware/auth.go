package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
)

var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrForbidden       = errors.New("not authorized")
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "access_token"

type contextKey string

const identityKey contextKey = "identity"

// Authenticate resolves a raw token to the caller's identity. Every token
// failure is reported as ErrUnauthenticated.
func Authenticate(tokens *crypto.TokenService, raw string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, ErrUnauthenticated
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		return model.Identity{}, ErrUnauthenticated
	}

	return model.Identity{
		UserID:   claims.UserID,
		Username: claims.Username(),
		Role:     model.Role(claims.Role),
	}, nil
}

// RequireRole checks the role embedded in the token. Storage is not
// consulted, so a role change applies once the caller's token expires.
func RequireRole(identity model.Identity, role model.Role) error {
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}

// JWTAuth returns middleware that validates a bearer token and stores the
// caller's identity in the request context.
func JWTAuth(tokens *crypto.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := Authenticate(tokens, bearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSONError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
			return
		}
		if err := RequireRole(identity, model.RoleAdmin); err != nil {
			writeJSONError(w, http.StatusForbidden, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
