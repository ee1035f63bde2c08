package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// PreflightMaxAge is how long browsers may cache a preflight answer.
const PreflightMaxAge = 30 * 24 * time.Hour

// CORSPolicy lists what cross-origin callers may do.
// An origin of "*" admits every origin without credentials.
type CORSPolicy struct {
	Origins []string
	Methods []string
	Headers []string
	MaxAge  time.Duration
}

// ProductsCORS returns the policy for the products API routes.
func ProductsCORS(origins []string) CORSPolicy {
	return CORSPolicy{
		Origins: origins,
		Methods: []string{
			http.MethodOptions,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		Headers: []string{
			"Origin",
			"Accept",
			"X-Requested-With",
			"Content-Type",
			"Access-Control-Request-Method",
			"Access-Control-Request-Headers",
			RequestIDHeader,
		},
		MaxAge: PreflightMaxAge,
	}
}

// CORS sets the policy headers on every response and answers preflight
// OPTIONS requests with 204 without calling next.
func CORS(policy CORSPolicy) Middleware {
	allowed := make(map[string]bool, len(policy.Origins))
	for _, origin := range policy.Origins {
		allowed[origin] = true
	}
	wildcard := allowed["*"]

	methods := strings.Join(policy.Methods, ", ")
	headers := strings.Join(policy.Headers, ", ")
	maxAge := strconv.Itoa(int(policy.MaxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")

			switch {
			case origin == "" && wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin == "":
			case allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			case wildcard:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
