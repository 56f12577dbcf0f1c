package middleware

import (
	"context"
	"net/http"

	"github.com/outfoxxed/seashare/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// tokenKey is the context key for the caller's seafile token.
const tokenKey contextKey = "seafileToken"

// TokenHeader is the request header carrying the caller's seafile API token.
const TokenHeader = "seafile-token"

// SeafileToken returns middleware that requires the seafile-token header and
// injects its value into the request context. The token is opaque to the
// gateway: it is never decoded or validated here, only forwarded to the
// backend, which decides whether it is acceptable.
func SeafileToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			response.BadRequest(w, "invalid seafile-token header")
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Token returns the seafile token stored in ctx by SeafileToken, or "" if
// the middleware did not run.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
