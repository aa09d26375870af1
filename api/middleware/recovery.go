package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"casa_subastas/api/apierror"
	"casa_subastas/api/response"
)

// Recovery turns handler panics into a 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %v\n%s", err, debug.Stack())
				response.Error(w, apierror.InternalError(""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
