package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/research-bridge/engine/internal/auth"
)

type principalKeyType string

const principalKey principalKeyType = "principal"

// Auth validates a Bearer JWT using the provided HMAC secret and places the
// caller's Principal (user id, role, organization affiliation) in the context.
// Issuing tokens is the identity service's job; this is only the seam where
// the engine receives an authenticated principal.
func Auth(hmacSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(ah[len("Bearer "):])
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return hmacSecret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			p := auth.Principal{UserID: claimUint(claims["sub"])}
			if role, ok := claims["role"].(string); ok {
				p.Role = role
			}
			if org := claimUint(claims["org_id"]); org != 0 {
				p.OrganizationID = &org
			}
			if !p.Authenticated() {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal stores a principal in the context. Exposed for handler tests.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal from the context, zero-valued when absent.
func GetPrincipal(ctx context.Context) auth.Principal {
	if v := ctx.Value(principalKey); v != nil {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}

// claimUint extracts a numeric claim that may arrive as float64 or string.
func claimUint(v any) uint {
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return uint(n)
		}
	case string:
		if id, err := strconv.ParseUint(n, 10, 64); err == nil {
			return uint(id)
		}
	}
	return 0
}
