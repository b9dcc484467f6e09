package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the cookie consulted when no Authorization header is sent.
const CookieName = "redisboard_token"

type ctxKey string

const userKey ctxKey = "user"

// Identify returns middleware that stores the caller in the request context.
// A bearer token from the Authorization header or CookieName is validated
// with j; without a token the anonymous user is assumed when set. Requests
// with an invalid token, or without identity, get 401.
func Identify(j *JWT, anonymous string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := anonymous
			if tok := token(r); tok != "" {
				if j == nil {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				claims, err := j.Validate(tok)
				if err != nil {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				user = claims.Subject
			}
			if user == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user subject stored in the context.
func UserFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userKey).(string); ok {
		return v
	}
	return ""
}
