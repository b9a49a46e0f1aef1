package middleware

import (
	"net/http"
)

// CORSMiddleware adds the configured CORS headers to every response and
// answers every OPTIONS request with an empty 200.
type CORSMiddleware struct {
	origin  string
	methods string
	headers string
}

func NewCORSMiddleware(origin, methods, headers string) *CORSMiddleware {
	return &CORSMiddleware{origin: origin, methods: methods, headers: headers}
}

func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", m.origin)
		h.Set("Access-Control-Allow-Methods", m.methods)
		h.Set("Access-Control-Allow-Headers", m.headers)
		if m.origin != "*" {
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
