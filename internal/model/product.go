// Package model defines data structures used throughout the application.
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Product is a catalog record.
type Product struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

// Optional records whether a field was supplied at all, separately from its value.
// A JSON null counts as supplied with Null set.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a supplied, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a supplied Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON marks the field as supplied and decodes its value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}

	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON encodes the value, or null when the field is null or absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProductInput carries the candidate fields of a create, replace or patch request.
type ProductInput struct {
	Category Optional[string]  `json:"category"`
	Name     Optional[string]  `json:"name"`
	Price    Optional[float64] `json:"price"`
}

// HasRequired reports whether category, name and price were all supplied.
// Presence is independent of value: null or zero still counts.
func (in ProductInput) HasRequired() bool {
	return in.Category.Set && in.Name.Set && in.Price.Set
}

// ToProduct builds a full record with the given id. Null fields take zero values.
func (in ProductInput) ToProduct(id string) Product {
	return Product{
		ID:       id,
		Category: in.Category.Value,
		Name:     in.Name.Value,
		Price:    in.Price.Value,
	}
}

// MergeInto overwrites the fields of p that were supplied with a truthy value.
// Empty strings, zero prices and nulls leave the existing value in place.
func (in ProductInput) MergeInto(p Product) Product {
	if in.Category.Set && !in.Category.Null && in.Category.Value != "" {
		p.Category = in.Category.Value
	}
	if in.Name.Set && !in.Name.Null && in.Name.Value != "" {
		p.Name = in.Name.Value
	}
	if in.Price.Set && !in.Price.Null && in.Price.Value != 0 {
		p.Price = in.Price.Value
	}
	return p
}

// PagedResult is one page of a filtered product collection.
type PagedResult struct {
	Page    int       `json:"page"`
	Limit   int       `json:"limit"`
	Next    *int      `json:"next"`
	Results []Product `json:"results"`
}

// IDResponse is returned after a product is created.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EventType names a catalog mutation.
type EventType string

// Catalog event types.
const (
	EventProductCreated  EventType = "product_created"
	EventProductReplaced EventType = "product_replaced"
	EventProductPatched  EventType = "product_patched"
	EventProductDeleted  EventType = "product_deleted"
)

// ProductEvent describes a committed catalog mutation.
type ProductEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Product   *Product  `json:"product,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProductEvent creates an event stamped with the current UTC time.
// The product is copied so later mutations do not leak into the event.
func NewProductEvent(eventType EventType, id string, product *Product) ProductEvent {
	var snapshot *Product
	if product != nil {
		p := *product
		snapshot = &p
	}

	return ProductEvent{
		Type:      eventType,
		ID:        id,
		Product:   snapshot,
		Timestamp: time.Now().UTC(),
	}
}
