// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger prints one line per request with status, size, and latency
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			fmt.Printf("[HTTP] %s %s %d %dB %v\n",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
		}()

		next.ServeHTTP(ww, r)
	})
}
