package conf

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever one of the layer files changes
// and invokes onChange with the new tree. It blocks until ctx is done or
// the watcher fails. Parent directories are watched rather than the files
// themselves, so atomic rename-style rewrites by editors are picked up.
//
// A reload that fails (for example a half-written YAML file) keeps the
// previous tree and does not invoke onChange.
func (m *Manager) Watch(ctx context.Context, onChange func(*Tree)) error {
	m.mu.Lock()
	paths := make([]string, len(m.watchPaths))
	copy(paths, m.watchPaths)
	m.mu.Unlock()

	if len(paths) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return SourceError{Source: "watcher", Cause: err}
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return SourceError{Source: dir, Cause: err}
		}
	}

	m.logger.Debug("watching configuration files", "files", len(watched))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				abs = event.Name
			}
			if !watched[abs] {
				continue
			}

			if err := m.Reload(); err != nil {
				m.logger.Warn("configuration reload failed, keeping previous tree",
					"file", event.Name, "error", err)
				continue
			}
			m.logger.Info("configuration reloaded", "file", event.Name)
			if onChange != nil {
				onChange(m.Tree())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("configuration watcher error", "error", err)
		}
	}
}
