package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ghostery/trackerdb/internal/spec"
)

// DefaultDebounce is how long the watcher waits after the last change
// before rebuilding. Editors often write a file in several steps.
const DefaultDebounce = 250 * time.Millisecond

// Watcher rebuilds the artifact whenever spec records change.
// Every rebuild is a full export; nothing is applied incrementally.
type Watcher struct {
	watcher  *fsnotify.Watcher
	loader   *spec.Loader
	dirs     map[string]bool
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher starts watching the kind directories of loader that exist.
// The caller MUST call Close() when done.
func NewWatcher(loader *spec.Loader, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		loader:   loader,
		dirs:     make(map[string]bool),
		debounce: debounce,
		logger:   logger,
	}

	for _, kind := range spec.Kinds {
		dir := loader.Dir(kind)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
		}
		w.dirs[abs] = true
	}

	if len(w.dirs) == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no record directories to watch under %s", loader.Root())
	}

	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Relevant reports whether event touches a spec record in a watched kind
// directory. Chmod-only events are ignored.
func (w *Watcher) Relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !w.loader.Accepts(event.Name) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.dirs[filepath.Dir(abs)]
}

// Run calls rebuild once per burst of relevant changes until ctx is
// cancelled. A failed rebuild is logged and watching continues, so that a
// half-edited record does not stop the loop.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context) error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.Relevant(event) {
				continue
			}
			w.logger.Printf("File event: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			timer, fire = nil, nil
			if err := rebuild(ctx); err != nil {
				w.logger.Printf("Rebuild failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}
