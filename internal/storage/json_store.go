package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"aetheria-site/pkg/fsutils"
)

// JSONStore implements the Store interface using JSON files.
// It stores each key as an individual <key>.json file under BasePath.
type JSONStore struct {
	// BasePath is the directory where entry files (*.json) are stored.
	BasePath string

	mu sync.Mutex
}

// NewJSONStore creates a new JSONStore instance.
// It ensures the base storage directory exists.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := fsutils.CreateDir(basePath); err != nil {
		return nil, fmt.Errorf("failed to create storage directory '%s': %w", basePath, err)
	}
	return &JSONStore{BasePath: basePath}, nil
}

// GetBasePath returns the base path of the JSON store.
func (js *JSONStore) GetBasePath() string {
	return js.BasePath
}

func (js *JSONStore) pathFor(key string) (string, error) {
	name := fsutils.SanitizeFilename(key)
	if name == "" {
		return "", fmt.Errorf("storage key cannot be empty")
	}
	return filepath.Join(js.BasePath, name+".json"), nil
}

// Get reads the entry file for key.
func (js *JSONStore) Get(key string) ([]byte, error) {
	filePath, err := js.pathFor(key)
	if err != nil {
		return nil, err
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("entry %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read entry file %s: %w", filePath, err)
	}
	return data, nil
}

// Set atomically replaces the entry file for key.
func (js *JSONStore) Set(key string, value []byte) error {
	filePath, err := js.pathFor(key)
	if err != nil {
		return err
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	if err := fsutils.WriteFileAtomic(filePath, value); err != nil {
		return fmt.Errorf("failed to write entry file %s: %w", filePath, err)
	}
	return nil
}

// Delete removes the entry file. Missing files are ignored (idempotent delete).
func (js *JSONStore) Delete(key string) error {
	filePath, err := js.pathFor(key)
	if err != nil {
		return err
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete entry file %s: %w", filePath, err)
	}
	return nil
}

// Keys scans the BasePath directory for *.json files and returns their keys.
func (js *JSONStore) Keys() ([]string, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	files, err := os.ReadDir(js.BasePath)
	if err != nil {
		// If the base path itself doesn't exist yet, return empty list, no error
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read storage directory %s: %w", js.BasePath, err)
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}
