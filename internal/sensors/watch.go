package sensors

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads the agent's scenario when the scenario file changes
// on disk.
type Watcher struct {
	path  string
	agent *Agent
}

func NewWatcher(path string, agent *Agent) *Watcher {
	return &Watcher{path: path, agent: agent}
}

func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	target, err := filepath.Abs(w.path)
	if err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				name, err := filepath.Abs(evt.Name)
				if err != nil || name != target {
					continue
				}
				if err := w.agent.LoadScenario(w.path); err != nil {
					log.Error().Err(err).Str("path", w.path).Msg("scenario reload failed")
					continue
				}
				log.Info().Str("path", w.path).Msg("scenario reloaded")
			case err := <-watcher.Errors:
				log.Error().Err(err).Msg("watcher error")
			}
		}
	}()

	// Editors typically replace the file, so watch the directory.
	return watcher.Add(filepath.Dir(target))
}
