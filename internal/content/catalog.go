package content

import (
	"fmt"
	"sync"

	"aetheria-site/internal/model"
	"aetheria-site/internal/storage"

	"github.com/rs/zerolog"
)

// Catalog owns the canonical product set. Same load/commit contract as Store.
type Catalog struct {
	adapter *storage.Adapter
	logger  zerolog.Logger

	mu       sync.RWMutex
	loaded   bool
	products []model.Product
}

// NewCatalog creates a product catalog over adapter.
func NewCatalog(adapter *storage.Adapter, logger zerolog.Logger) *Catalog {
	return &Catalog{
		adapter: adapter,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// Load (re)reads the catalog from storage and returns a copy.
func (c *Catalog) Load() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	return model.CloneProducts(c.products)
}

func (c *Catalog) loadLocked() {
	c.products = storage.Load(c.adapter, storage.KeyProducts, model.DefaultProducts(), storage.IsArray)
	c.loaded = true
}

// List returns a copy of the current products, loading them on first use.
func (c *Catalog) List() []model.Product {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return model.CloneProducts(c.products)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.loadLocked()
	}
	return model.CloneProducts(c.products)
}

// Find returns the product with the given id.
func (c *Catalog) Find(id string) (model.Product, bool) {
	for _, p := range c.List() {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Commit persists the product set and then replaces the in-memory copy.
// Product ids must be unique; a duplicate is rejected before anything is written.
func (c *Catalog) Commit(products []model.Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("commit products: duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	value := model.CloneProducts(products)
	if err := storage.Save(c.adapter, storage.KeyProducts, value); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist products, keeping previous state")
		return fmt.Errorf("commit products: %w", err)
	}
	c.products = value
	c.loaded = true
	c.logger.Info().Int("count", len(value)).Msg("Products committed")
	return nil
}
