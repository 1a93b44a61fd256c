package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports entries changed on disk by other processes (a hand edit, a restore from
// backup). onChange is called with the entry key once the file has been quiet for
// debounce. Watch blocks until ctx is done.
func (js *JSONStore) Watch(ctx context.Context, debounce time.Duration, onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(js.BasePath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", js.BasePath, err)
	}

	var (
		mu     sync.Mutex
		timers = map[string]*time.Timer{}
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			key, ok := keyFromFile(event.Name)
			if !ok {
				continue
			}
			mu.Lock()
			if t, pending := timers[key]; pending {
				t.Stop()
			}
			timers[key] = time.AfterFunc(debounce, func() {
				mu.Lock()
				delete(timers, key)
				mu.Unlock()
				onChange(key)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		}
	}
}

// keyFromFile maps an entry file back to its key. Temp files and other files are skipped.
func keyFromFile(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	key := strings.TrimSuffix(name, ".json")
	return key, key != ""
}
