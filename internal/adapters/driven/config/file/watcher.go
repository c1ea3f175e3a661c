package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// WatchPrompts reloads store whenever a .txt file in its directory is
// written, created, renamed or removed. It blocks until ctx is done.
// The first Load is forced so the directory exists before watching.
func WatchPrompts(ctx context.Context, store *PromptStore) error {
	if _, err := store.Load(driven.PromptScope); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(store.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", store.Dir(), err)
	}
	logger.Debug("watching prompts in %s", store.Dir())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("prompt %s changed (%s), reloading", filepath.Base(event.Name), event.Op)
			store.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}
