package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"casa_subastas/api/apierror"
	"casa_subastas/api/response"
)

const UserIDKey contextKey = "user_id"

// UserID reads the X-User-ID header set by the upstream gateway. Requests
// without a valid id continue anonymously.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID returns the caller id and whether one was supplied.
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			response.Error(w, apierror.Unauthorized(""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminKey guards admin routes with X-Admin-Key. An empty key leaves the
// routes open.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			given := r.Header.Get("X-Admin-Key")
			if given == "" {
				response.Error(w, apierror.Unauthorized(""))
				return
			}
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				response.Error(w, apierror.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
