// Package catalog implements product queries and mutations over a Store.
//
// Reads take a snapshot of the store, filter it by category, apply an optional
// discount to copies and paginate the result. Writes validate their input and
// are serialized so that every exists-check and write pair is atomic.
package catalog

import (
	"errors"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// Catalog errors.
var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidInput = errors.New("product requires category, name and price")
)

// Notifier receives committed mutations. Publish is called while the write
// lock is held and must not block.
type Notifier interface {
	Publish(event model.ProductEvent)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event model.ProductEvent)

// Publish calls f(event).
func (f NotifierFunc) Publish(event model.ProductEvent) {
	f(event)
}
