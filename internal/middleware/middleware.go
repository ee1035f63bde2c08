// Package middleware provides the HTTP handler stack wrapped around the
// products API: panic recovery, request ids, metrics, the access log and CORS.
package middleware

import (
	"bufio"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so that the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Options selects the layers of the products API stack.
type Options struct {
	Logger  *zap.Logger
	CORS    CORSPolicy
	Metrics bool
}

// Stack builds the products API middleware, outermost first:
// Recovery, RequestID, Metrics (when enabled), AccessLog and CORS.
func Stack(opts Options) Middleware {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	layers := []Middleware{Recovery(logger), RequestID()}
	if opts.Metrics {
		layers = append(layers, Metrics())
	}
	layers = append(layers, AccessLog(logger), CORS(opts.CORS))

	return Chain(layers...)
}

// statusRecorder remembers the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

// WriteHeader records the first status code written.
func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Write counts body bytes, sending an implicit 200 first.
func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Status returns the recorded status, 200 if the handler wrote nothing.
func (rec *statusRecorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// Hijack lets the /ws upgrade take over the connection.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher.
func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
