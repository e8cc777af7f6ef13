package api

import (
	"fmt"
	"net/http"
)

// withCORS allows every origin and answers preflight requests directly,
// echoing the headers and method the browser asked for.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
			w.Header().Set("Access-Control-Allow-Headers", headers)
		}
		if method := r.Header.Get("Access-Control-Request-Method"); method != "" {
			w.Header().Set("Access-Control-Allow-Methods", method)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// withRecovery turns a handler panic into a 500 JSON error.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic while handling request",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
			)
			s.writeError(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}()
		next.ServeHTTP(w, r)
	})
}
