//go:build functional

// Package functional drives a real products API server over HTTP and
// WebSocket: the REST contract, the mutation event stream and the shell
// around them.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/products-api/internal/catalog"
	"github.com/vyrodovalexey/products-api/internal/config"
	"github.com/vyrodovalexey/products-api/internal/discount"
	"github.com/vyrodovalexey/products-api/internal/handler"
	"github.com/vyrodovalexey/products-api/internal/idgen"
	"github.com/vyrodovalexey/products-api/internal/model"
	"github.com/vyrodovalexey/products-api/internal/seed"
	"github.com/vyrodovalexey/products-api/internal/server"
	"github.com/vyrodovalexey/products-api/internal/store"
)

// Timeouts used across the suite.
const (
	startTimeout   = 10 * time.Second
	requestTimeout = 5 * time.Second
	eventTimeout   = 5 * time.Second
	quietPeriod    = 500 * time.Millisecond
)

// Seeded catalog. Ids after Apple come from a sequence, so the first
// product created by a test is _5.
const (
	appleID      = seed.AppleID
	bananaID     = "_1"
	cornID       = "_2"
	firstNewID   = "_5"
	seededCount  = 5
	missingID    = "_missing"
	productsPath = "/api/products"
)

// Catalog is a running server over a freshly seeded in-memory catalog.
type Catalog struct {
	Service *catalog.Service
	Events  *handler.WebSocketHandler
	BaseURL string
	WSURL   string

	t        *testing.T
	srv      *server.Server
	client   *http.Client
	stopOnce sync.Once
}

// Option adjusts the server configuration before start.
type Option func(*config.Config)

// WithDiscountCodes adds discount codes in the APP_DISCOUNT_CODES format.
func WithDiscountCodes(codes string) Option {
	return func(cfg *config.Config) { cfg.DiscountCodes = codes }
}

// WithCORSOrigins restricts the allowed CORS origins.
func WithCORSOrigins(origins string) Option {
	return func(cfg *config.Config) { cfg.CORSOrigins = origins }
}

// StartCatalog starts a server on a free local port and stops it when the
// test ends.
func StartCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	cfg := &config.Config{
		ServerPort:      port,
		LogLevel:        "error",
		ShutdownTimeout: requestTimeout,
		CORSOrigins:     config.DefaultCORSOrigins,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	extra, err := cfg.Discounts()
	if err != nil {
		t.Fatalf("Invalid discount codes: %v", err)
	}
	discounts, err := discount.WithDefaults(extra)
	if err != nil {
		t.Fatalf("Invalid discount codes: %v", err)
	}

	logger := zap.NewNop()
	events := handler.NewWebSocketHandler(logger)
	svc := catalog.NewService(store.NewMemoryStore(), idgen.NewSequence(), discounts, logger,
		catalog.WithNotifier(events))
	if err := svc.Seed(seed.BuiltIn()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	c := &Catalog{
		Service: svc,
		Events:  events,
		BaseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		WSURL:   fmt.Sprintf("ws://127.0.0.1:%d/ws", port),
		t:       t,
		srv:     server.New(cfg, logger, svc, events),
		client:  &http.Client{Timeout: requestTimeout},
	}

	go func() {
		if err := c.srv.Start(); err != nil {
			t.Logf("Server stopped: %v", err)
		}
	}()
	c.waitHealthy()
	t.Cleanup(c.Stop)

	return c
}

func (c *Catalog) waitHealthy() {
	c.t.Helper()

	deadline := time.Now().Add(startTimeout)
	for time.Now().Before(deadline) {
		resp, err := c.send(http.MethodGet, "/health", nil, nil)
		if err == nil && resp.Status == http.StatusOK {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	c.t.Fatalf("Server at %s did not become healthy within %s", c.BaseURL, startTimeout)
}

// Stop shuts the server down once; later calls do nothing.
func (c *Catalog) Stop() {
	c.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := c.srv.Shutdown(ctx); err != nil {
			c.t.Logf("Server shutdown: %v", err)
		}
	})
}

// Response is a fully read HTTP response.
type Response struct {
	Method string
	Path   string
	Status int
	Header http.Header
	Body   []byte
}

// Expect fails the test unless the response has the given status.
func (r *Response) Expect(t *testing.T, status int) *Response {
	t.Helper()
	if r.Status != status {
		t.Fatalf("%s %s: status %d, want %d; body %s", r.Method, r.Path, r.Status, status, r.Body)
	}
	return r
}

// ExpectHeader fails the test unless header key equals want.
func (r *Response) ExpectHeader(t *testing.T, key, want string) *Response {
	t.Helper()
	if got := r.Header.Get(key); got != want {
		t.Errorf("%s %s: header %s = %q, want %q", r.Method, r.Path, key, got, want)
	}
	return r
}

// decode parses the response body as T.
func decode[T any](t *testing.T, r *Response) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(r.Body, &v); err != nil {
		t.Fatalf("%s %s: decoding %s: %v", r.Method, r.Path, r.Body, err)
	}
	return v
}

// send performs a request. Body may be a raw JSON string or any value to
// marshal; nil sends no body.
func (c *Catalog) send(method, path string, body any, header http.Header) (*Response, error) {
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		req.Header[key] = values
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &Response{Method: method, Path: path, Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Call performs a request and fails the test on transport errors.
func (c *Catalog) Call(method, path string, body any, header http.Header) *Response {
	c.t.Helper()

	resp, err := c.send(method, path, body, header)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// List requests GET /api/products with the given raw query, e.g. "?page=2".
func (c *Catalog) List(query string) *Response {
	c.t.Helper()
	return c.Call(http.MethodGet, productsPath+query, nil, nil)
}

// Get requests one product, with an optional discount code.
func (c *Catalog) Get(id, discountCode string) *Response {
	c.t.Helper()
	path := productsPath + "/" + id
	if discountCode != "" {
		path += "?discount=" + discountCode
	}
	return c.Call(http.MethodGet, path, nil, nil)
}

// Create posts a product payload.
func (c *Catalog) Create(body any) *Response {
	c.t.Helper()
	return c.Call(http.MethodPost, productsPath, body, nil)
}

// Replace puts a full product payload.
func (c *Catalog) Replace(id string, body any) *Response {
	c.t.Helper()
	return c.Call(http.MethodPut, productsPath+"/"+id, body, nil)
}

// Patch sends a partial product payload.
func (c *Catalog) Patch(id string, body any) *Response {
	c.t.Helper()
	return c.Call(http.MethodPatch, productsPath+"/"+id, body, nil)
}

// Delete removes a product.
func (c *Catalog) Delete(id string) *Response {
	c.t.Helper()
	return c.Call(http.MethodDelete, productsPath+"/"+id, nil, nil)
}

// AllProducts lists the whole catalog in one page.
func (c *Catalog) AllProducts() []model.Product {
	c.t.Helper()
	return decode[model.PagedResult](c.t, c.List("?limit=1000").Expect(c.t, http.StatusOK)).Results
}

// newProduct is a complete create or replace payload.
func newProduct(category, name string, price float64) map[string]any {
	return map[string]any{"category": category, "name": name, "price": price}
}

func productNames(products []model.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

// Subscriber is a WebSocket client on the catalog event stream.
type Subscriber struct {
	t    *testing.T
	conn *websocket.Conn
}

// Subscribe connects to /ws and waits until the server has registered the
// client, so no later mutation can be missed.
func (c *Catalog) Subscribe() *Subscriber {
	c.t.Helper()

	before := c.Events.ClientCount()
	dialer := websocket.Dialer{HandshakeTimeout: requestTimeout}
	conn, _, err := dialer.Dial(c.WSURL, nil)
	if err != nil {
		c.t.Fatalf("Dial %s: %v", c.WSURL, err)
	}

	s := &Subscriber{t: c.t, conn: conn}
	c.t.Cleanup(func() { _ = conn.Close() })
	c.waitSubscribers(func(n int) bool { return n > before }, "a new subscriber")

	return s
}

// waitSubscribers polls the connected client count until done reports true.
func (c *Catalog) waitSubscribers(done func(int) bool, what string) {
	c.t.Helper()

	deadline := time.Now().Add(eventTimeout)
	for !done(c.Events.ClientCount()) {
		if time.Now().After(deadline) {
			c.t.Fatalf("Timed out waiting for %s; %d clients connected", what, c.Events.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Next reads one event.
func (s *Subscriber) Next(timeout time.Duration) (model.ProductEvent, error) {
	var event model.ProductEvent
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return event, err
	}
	err := s.conn.ReadJSON(&event)
	return event, err
}

// Expect reads one event and checks its type and product id.
func (s *Subscriber) Expect(eventType model.EventType, id string) model.ProductEvent {
	s.t.Helper()

	event, err := s.Next(eventTimeout)
	if err != nil {
		s.t.Fatalf("Waiting for %s of %s: %v", eventType, id, err)
	}
	if event.Type != eventType || event.ID != id {
		s.t.Fatalf("Got %s of %s, want %s of %s", event.Type, event.ID, eventType, id)
	}
	return event
}

// ExpectSilence fails the test if an event arrives within the quiet period.
func (s *Subscriber) ExpectSilence() {
	s.t.Helper()

	event, err := s.Next(quietPeriod)
	if err == nil {
		s.t.Fatalf("Unexpected %s of %s", event.Type, event.ID)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		s.t.Fatalf("Stream failed instead of staying quiet: %v", err)
	}
}

// Leave performs a client-initiated close handshake.
func (s *Subscriber) Leave() {
	s.t.Helper()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		s.t.Fatalf("Sending close: %v", err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}
	_ = s.conn.Close()
}
