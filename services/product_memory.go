package services

import (
	"sync"

	"backend/models"
)

// MemoryProductStore implements ProductStore over a map. It backs tests and
// local development without a database; the semantics mirror the gorm
// store, including upsert idempotence by code.
type MemoryProductStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	nextID   uint
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[string]*models.Product)}
}

func (s *MemoryProductStore) FindByCodeAndRegion(code, region string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[code]
	if !ok || p.RegionFor(region) == nil {
		return nil, ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (s *MemoryProductStore) UpsertWithRegion(product *models.Product, entry models.RegionEntry) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.Code]
	if !ok {
		s.nextID++
		stored := copyProduct(product)
		stored.ID = s.nextID
		stored.Regions = nil
		s.products[product.Code] = stored
		existing = stored
	}

	if existing.RegionFor(entry.Country) == nil {
		entry.ProductID = existing.ID
		existing.Regions = append(existing.Regions, entry)
	}
	return copyProduct(existing), nil
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	c.Regions = append([]models.RegionEntry(nil), p.Regions...)
	return &c
}
