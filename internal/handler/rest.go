package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/products-api/internal/catalog"
	"github.com/vyrodovalexey/products-api/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errInvalidBody is returned when a request body is not a JSON product object.
var errInvalidBody = errors.New("invalid request body")

// RESTHandler handles REST API requests for products.
type RESTHandler struct {
	products ProductService
	logger   *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(products ProductService, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products", h.CreateProduct).Methods(http.MethodPost)
	router.HandleFunc("/api/products/{id}", h.GetProduct).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", h.ReplaceProduct).Methods(http.MethodPut)
	router.HandleFunc("/api/products/{id}", h.PatchProduct).Methods(http.MethodPatch)
	router.HandleFunc("/api/products/{id}", h.DeleteProduct).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ListProducts handles GET /api/products requests.
func (h *RESTHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result := h.products.List(catalog.ListQuery{
		Category: query.Get("category"),
		Discount: query.Get("discount"),
		Page:     queryParam(query, "page"),
		Limit:    queryParam(query, "limit"),
	})

	h.writeJSON(w, http.StatusOK, result)
}

// GetProduct handles GET /api/products/{id} requests.
func (h *RESTHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := h.products.Get(id, r.URL.Query().Get("discount"))
	if err != nil {
		h.handleError(w, err, "get product")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products requests.
func (h *RESTHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(w, r)
	if err != nil {
		h.handleError(w, err, "create product")
		return
	}

	id, err := h.products.Create(input)
	if err != nil {
		h.handleError(w, err, "create product")
		return
	}

	h.writeJSON(w, http.StatusCreated, model.IDResponse{ID: id})
}

// ReplaceProduct handles PUT /api/products/{id} requests.
func (h *RESTHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	input, err := h.decodeInput(w, r)
	if err != nil {
		h.handleError(w, err, "replace product")
		return
	}

	product, err := h.products.Replace(id, input)
	if err != nil {
		h.handleError(w, err, "replace product")
		return
	}

	h.writeJSON(w, http.StatusCreated, product)
}

// PatchProduct handles PATCH /api/products/{id} requests.
func (h *RESTHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	input, err := h.decodeInput(w, r)
	if err != nil {
		h.handleError(w, err, "patch product")
		return
	}

	product, err := h.products.Patch(id, input)
	if err != nil {
		h.handleError(w, err, "patch product")
		return
	}

	h.writeJSON(w, http.StatusCreated, product)
}

// DeleteProduct handles DELETE /api/products/{id} requests.
func (h *RESTHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.products.Delete(id); err != nil {
		h.handleError(w, err, "delete product")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// decodeInput reads a product payload. An empty body is an empty payload;
// anything after the first JSON value is rejected.
func (h *RESTHandler) decodeInput(w http.ResponseWriter, r *http.Request) (model.ProductInput, error) {
	var input model.ProductInput

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ProductInput{}, nil
		}
		h.logger.Warn("invalid request body", zap.Error(err))
		return model.ProductInput{}, errInvalidBody
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.String("reason", "trailing data after JSON value"))
		return model.ProductInput{}, errInvalidBody
	}

	return input, nil
}

// queryParam returns the first value of key, recording whether the key was present.
func queryParam(query url.Values, key string) model.Optional[string] {
	values, ok := query[key]
	if !ok || len(values) == 0 {
		return model.Optional[string]{}
	}
	return model.Some(values[0])
}

// handleError maps catalog errors to HTTP responses.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errInvalidBody):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("catalog operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
