package store

import (
	"container/list"
	"sync"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// MemoryStore implements Store with an in-memory ordered map.
type MemoryStore struct {
	mu    sync.RWMutex
	index map[string]*list.Element
	order *list.List // of model.Product, in insertion order
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]*list.Element),
		order: list.New(),
	}
}

// Get retrieves a product by its ID.
func (s *MemoryStore) Get(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, exists := s.index[id]
	if !exists {
		return model.Product{}, false
	}

	return elem.Value.(model.Product), true
}

// Put stores product under id, forcing its ID field to id.
func (s *MemoryStore) Put(id string, product model.Product) error {
	if id == "" {
		return ErrInvalidID
	}
	product.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.index[id]; exists {
		elem.Value = product
		return nil
	}

	s.index[id] = s.order.PushBack(product)

	return nil
}

// Delete removes a product from the store by its ID.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.index[id]
	if !exists {
		return false
	}

	s.order.Remove(elem)
	delete(s.index, id)

	return true
}

// Values returns a copy of all products in insertion order.
func (s *MemoryStore) Values() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]model.Product, 0, s.order.Len())
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		products = append(products, elem.Value.(model.Product))
	}

	return products
}

// Len returns the number of stored products.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.index)
}
