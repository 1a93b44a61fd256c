package content

import (
	"fmt"
	"sync"

	"aetheria-site/internal/model"
	"aetheria-site/internal/storage"

	"github.com/rs/zerolog"
)

// siteContentShape is the minimal check applied to stored site content.
var siteContentShape = storage.HasObjectKeys("hero", "features", "pricing")

// Store owns the canonical site content.
// It loads lazily on first access and is only changed through Commit.
type Store struct {
	adapter *storage.Adapter
	logger  zerolog.Logger

	mu      sync.RWMutex
	loaded  bool
	content model.SiteContent
}

// NewStore creates a content store over adapter. Nothing is read until first access.
func NewStore(adapter *storage.Adapter, logger zerolog.Logger) *Store {
	return &Store{
		adapter: adapter,
		logger:  logger.With().Str("component", "content").Logger(),
	}
}

// Load (re)reads the content from storage, seeding the default when the stored
// entry is missing or malformed, and returns a copy of it.
func (s *Store) Load() model.SiteContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.content.Clone()
}

func (s *Store) loadLocked() {
	s.content = storage.Load(s.adapter, storage.KeySiteContent, model.DefaultSiteContent(), siteContentShape)
	s.loaded = true
}

// Get returns a deep copy of the current content, loading it on first use.
func (s *Store) Get() model.SiteContent {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.content.Clone()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.loadLocked()
	}
	return s.content.Clone()
}

// Commit persists next and, only once the write succeeded, makes it the canonical content.
// On failure the previous content stays in place and the *storage.WriteError is returned.
func (s *Store) Commit(next model.SiteContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := next.Clone()
	if err := storage.Save(s.adapter, storage.KeySiteContent, value); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist site content, keeping previous state")
		return fmt.Errorf("commit site content: %w", err)
	}
	s.content = value
	s.loaded = true
	s.logger.Info().Msg("Site content committed")
	return nil
}
