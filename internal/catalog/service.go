package catalog

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/products-api/internal/discount"
	"github.com/vyrodovalexey/products-api/internal/idgen"
	"github.com/vyrodovalexey/products-api/internal/model"
	"github.com/vyrodovalexey/products-api/internal/store"
)

// ListQuery holds the raw parameters of a collection read.
type ListQuery struct {
	Category string
	Discount string
	Page     model.Optional[string]
	Limit    model.Optional[string]
}

// Service exposes product reads and writes over a single store.
type Service struct {
	mu        sync.Mutex // serializes writes
	store     store.Store
	ids       idgen.Generator
	discounts *discount.Catalog
	notifier  Notifier
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the receiver of committed mutation events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService creates a new Service instance.
func NewService(
	s store.Store,
	ids idgen.Generator,
	discounts *discount.Catalog,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	svc := &Service{
		store:     s,
		ids:       ids,
		discounts: discounts,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(svc)
	}

	productsGauge.Set(float64(s.Len()))

	return svc
}

// Seed stores the given products in order. Products without an ID get a fresh one.
func (s *Service) Seed(products []model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		id := p.ID
		if id == "" {
			id = s.ids.Generate()
		}
		if err := s.store.Put(id, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}

	productsGauge.Set(float64(s.store.Len()))
	s.logger.Info("catalog seeded", zap.Int("seeded", len(products)), zap.Int("total", s.store.Len()))

	return nil
}

// Get returns the product with the given id, discounted when code resolves.
// The stored price is never changed by a read.
func (s *Service) Get(id, code string) (model.Product, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return model.Product{}, ErrNotFound
	}

	if discounted, applied := s.discounts.Apply(code, p); applied {
		discountsApplied.WithLabelValues(strings.ToUpper(code)).Inc()
		return discounted, nil
	}

	return p, nil
}

// List filters, discounts and paginates a snapshot of the catalog.
// Malformed pagination never fails; it yields the fallback page instead.
func (s *Service) List(q ListQuery) model.PagedResult {
	page, limit, ok := ParsePagination(q.Page, q.Limit)
	if !ok {
		s.logger.Debug("invalid pagination, returning fallback page",
			zap.Any("page", q.Page),
			zap.Any("limit", q.Limit),
		)
		return fallbackPage()
	}

	products := filterByCategory(s.store.Values(), q.Category)

	if _, known := s.discounts.RatioFor(q.Discount); known {
		for i := range products {
			products[i], _ = s.discounts.Apply(q.Discount, products[i])
		}
		discountsApplied.WithLabelValues(strings.ToUpper(q.Discount)).Inc()
	}

	return Paginate(products, page, limit)
}

// filterByCategory keeps products whose category equals category ignoring case.
// An empty category keeps everything. Order is preserved.
func filterByCategory(products []model.Product, category string) []model.Product {
	if category == "" {
		return products
	}

	matched := products[:0]
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			matched = append(matched, p)
		}
	}

	return matched
}

// Create stores a new product and returns its generated id.
func (s *Service) Create(in model.ProductInput) (string, error) {
	if !in.HasRequired() {
		return "", ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.Generate()
	p := in.ToProduct(id)
	if err := s.store.Put(id, p); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	s.committed(model.EventProductCreated, id, &p)

	return id, nil
}

// Replace overwrites the product with the given id by exactly the supplied fields.
func (s *Service) Replace(id string, in model.ProductInput) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(id); !ok {
		return model.Product{}, ErrNotFound
	}

	if !in.HasRequired() {
		return model.Product{}, ErrInvalidInput
	}

	p := in.ToProduct(id)
	if err := s.store.Put(id, p); err != nil {
		return model.Product{}, fmt.Errorf("replace product: %w", err)
	}

	s.committed(model.EventProductReplaced, id, &p)

	return p, nil
}

// Patch merges the truthy supplied fields into the product with the given id.
// Empty strings, zero and null values leave the stored field unchanged.
func (s *Service) Patch(id string, in model.ProductInput) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.store.Get(id)
	if !ok {
		return model.Product{}, ErrNotFound
	}

	p := in.MergeInto(existing)
	if err := s.store.Put(id, p); err != nil {
		return model.Product{}, fmt.Errorf("patch product: %w", err)
	}

	s.committed(model.EventProductPatched, id, &p)

	return p, nil
}

// Delete removes the product with the given id.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Delete(id) {
		return ErrNotFound
	}

	s.committed(model.EventProductDeleted, id, nil)

	return nil
}

// committed records metrics, logs and publishes a mutation. Callers hold s.mu.
func (s *Service) committed(eventType model.EventType, id string, p *model.Product) {
	mutationsTotal.WithLabelValues(string(eventType)).Inc()
	productsGauge.Set(float64(s.store.Len()))

	s.logger.Debug("product mutated",
		zap.String("event", string(eventType)),
		zap.String("id", id),
	)

	if s.notifier != nil {
		s.notifier.Publish(model.NewProductEvent(eventType, id, p))
	}
}
