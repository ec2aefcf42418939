package middleware

import (
	"context"
	"net/http"
	"strings"

	authkit "github.com/varekai/authkit"
)

type identityContextKey struct{}

// IdentityFromContext returns the principal stored by [RequireAccess].
func IdentityFromContext(ctx context.Context) (authkit.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(authkit.Identity)
	return id, ok
}

// RequireAccess returns middleware that rejects requests without a valid
// Bearer access token. The authenticated identity is placed in the request
// context.
func RequireAccess(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := engine.ValidateAccess(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
