package pages

import (
	"errors"
	"fmt"
	"sync"

	"aetheria-site/internal/model"
	"aetheria-site/internal/storage"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Resolve when no page carries the slug.
var ErrNotFound = errors.New("pages: page not found")

// SlugCollisionError reports two pages sharing one slug.
type SlugCollisionError struct {
	Slug     string
	PageID   string // The page being written
	HolderID string // The page already using the slug
}

func (e *SlugCollisionError) Error() string {
	return fmt.Sprintf("pages: slug %q of page %q is already used by page %q", e.Slug, e.PageID, e.HolderID)
}

// Registry owns the set of custom pages.
type Registry struct {
	adapter *storage.Adapter
	logger  zerolog.Logger

	mu     sync.RWMutex
	loaded bool
	pages  []model.CustomPage
}

// NewRegistry creates a page registry over adapter.
func NewRegistry(adapter *storage.Adapter, logger zerolog.Logger) *Registry {
	return &Registry{
		adapter: adapter,
		logger:  logger.With().Str("component", "pages").Logger(),
	}
}

// Load (re)reads the page set from storage and returns a copy.
func (r *Registry) Load() []model.CustomPage {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	return model.ClonePages(r.pages)
}

func (r *Registry) loadLocked() {
	r.pages = storage.Load(r.adapter, storage.KeyCustomPages, model.DefaultPages(), storage.IsArray)
	r.loaded = true
}

// List returns a copy of the current pages, loading them on first use.
func (r *Registry) List() []model.CustomPage {
	r.mu.RLock()
	if r.loaded {
		defer r.mu.RUnlock()
		return model.ClonePages(r.pages)
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loadLocked()
	}
	return model.ClonePages(r.pages)
}

// Resolve returns the first page whose slug equals slug exactly (case-sensitive).
// When several stored pages share a slug the earliest one wins.
func (r *Registry) Resolve(slug string) (model.CustomPage, error) {
	return Find(r.List(), slug)
}

// Find scans pages for the first exact slug match.
func Find(pages []model.CustomPage, slug string) (model.CustomPage, error) {
	for _, p := range pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.CustomPage{}, fmt.Errorf("slug %q: %w", slug, ErrNotFound)
}

// CheckSlugs returns a *SlugCollisionError for the first slug used twice in pages.
func CheckSlugs(pages []model.CustomPage) error {
	holders := make(map[string]string, len(pages))
	for _, p := range pages {
		if holder, taken := holders[p.Slug]; taken {
			return &SlugCollisionError{Slug: p.Slug, PageID: p.ID, HolderID: holder}
		}
		holders[p.Slug] = p.ID
	}
	return nil
}

// Commit validates slug uniqueness, persists the set, and then replaces the in-memory copy.
func (r *Registry) Commit(pages []model.CustomPage) error {
	if err := CheckSlugs(pages); err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value := model.ClonePages(pages)
	if err := storage.Save(r.adapter, storage.KeyCustomPages, value); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist custom pages, keeping previous state")
		return fmt.Errorf("commit pages: %w", err)
	}
	r.pages = value
	r.loaded = true
	r.logger.Info().Int("count", len(value)).Msg("Custom pages committed")
	return nil
}
