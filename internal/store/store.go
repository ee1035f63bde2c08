// Package store provides data storage interfaces and implementations.
package store

import (
	"errors"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// ErrInvalidID is returned when a product is stored under an empty ID.
var ErrInvalidID = errors.New("invalid product ID")

// Store is an insertion-ordered repository of products keyed by ID.
// Absence is an expected outcome and is reported as a boolean.
type Store interface {
	// Get returns the product stored under id.
	Get(id string) (model.Product, bool)

	// Put inserts or overwrites the product stored under id. A new id is
	// appended to the iteration order; an existing one keeps its position.
	Put(id string, product model.Product) error

	// Delete removes the product stored under id and reports whether it was present.
	Delete(id string) bool

	// Values returns a snapshot of all products in insertion order.
	Values() []model.Product

	// Len returns the number of stored products.
	Len() int
}
