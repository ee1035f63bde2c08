package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// accessTimeLayout is the ISO-8601 UTC timestamp with milliseconds used
// at the start of every access line.
const accessTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// catalogParams are the product list query parameters copied into log fields.
var catalogParams = []string{"category", "discount", "page", "limit"}

// quietRoutes are polled by health checks and scrapers and logged at debug level.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AccessLog writes one line per request in the form
//
//	2024-05-01T10:00:00.000Z - [GET] "/api/products?category=food"
//
// with the route, product id, catalog query parameters, status, size and
// duration attached as structured fields.
func AccessLog(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := routeTemplate(r)
			fields := append(catalogFields(r),
				zap.String("route", route),
				zap.Int("status", rec.Status()),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFrom(r.Context())),
			)

			line := accessLine(start, r)
			if quietRoutes[route] {
				logger.Debug(line, fields...)
				return
			}
			logger.Info(line, fields...)
		})
	}
}

func accessLine(at time.Time, r *http.Request) string {
	return fmt.Sprintf(`%s - [%s] "%s"`, at.UTC().Format(accessTimeLayout), r.Method, r.URL.RequestURI())
}

// catalogFields extracts the product id path variable and any catalog query
// parameters that were supplied, keeping empty values.
func catalogFields(r *http.Request) []zap.Field {
	var fields []zap.Field

	if id, ok := mux.Vars(r)["id"]; ok {
		fields = append(fields, zap.String("product_id", id))
	}

	query := r.URL.Query()
	for _, key := range catalogParams {
		if values, ok := query[key]; ok && len(values) > 0 {
			fields = append(fields, zap.String(key, values[0]))
		}
	}

	return fields
}

// routeTemplate returns the matched mux route template, or the raw path
// when the request did not match a route.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
