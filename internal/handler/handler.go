// Package handler provides HTTP request handlers for the products API.
package handler

import (
	"github.com/vyrodovalexey/products-api/internal/catalog"
	"github.com/vyrodovalexey/products-api/internal/model"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ProductService is the catalog surface the REST handler depends on.
type ProductService interface {
	Get(id, code string) (model.Product, error)
	List(q catalog.ListQuery) model.PagedResult
	Create(in model.ProductInput) (string, error)
	Replace(id string, in model.ProductInput) (model.Product, error)
	Patch(id string, in model.ProductInput) (model.Product, error)
	Delete(id string) error
}
