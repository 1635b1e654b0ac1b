package scene

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/taigrr/softrast/pkg/render"
)

// Watcher reloads a config file whenever it changes on disk. The parent
// directory is watched rather than the file, so editors that save by
// renaming a temporary file are still seen.
type Watcher struct {
	path    string
	updates chan *Config
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path until ctx is done or Close is called.
func Watch(ctx context.Context, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    abs,
		updates: make(chan *Config, 1),
		fsw:     fsw,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Updates delivers each successfully reloaded config. Only the newest
// pending config is kept; the channel closes when the watcher stops.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.updates)

	log := render.Logger()
	log.Debug("config watcher started", "path", w.path)
	defer log.Debug("config watcher stopped", "path", w.path)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "path", w.path, "err", err)
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		render.Logger().Warn("config reload failed, keeping previous scene", "err", err)
		return
	}

	// Replace a config the consumer has not picked up yet.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
	render.Logger().Info("config reloaded", "path", w.path)
}
