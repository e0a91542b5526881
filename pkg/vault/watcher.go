package vault

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounceDelay is the default delay for coalescing rapid writes
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher republishes filesystem changes made outside the vault API (other
// processes, editors, sync clients) on the vault's change bus.
type Watcher struct {
	vault   *Vault
	watcher *fsnotify.Watcher
	errors  chan error
	done    chan struct{}
	logger  zerolog.Logger

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// NewWatcher starts watching an OS-backed vault recursively
func NewWatcher(v *Vault) (*Watcher, error) {
	if v.Root() == "" {
		return nil, errors.New(errors.ErrInvalidInput, "only OS-backed vaults can be watched")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot create filesystem watcher")
	}

	w := &Watcher{
		vault:         v,
		watcher:       fsw,
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		logger:        v.logger.With().Str("component", "vault.watcher").Logger(),
		debounceDelay: DefaultDebounceDelay,
		debounceMap:   make(map[string]*time.Timer),
	}

	if err := w.addRecursive(v.Root()); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot watch %s", v.Root())
	}

	go w.processEvents()

	return w, nil
}

// addRecursive adds the directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				if os.IsPermission(err) {
					return nil
				}
				return err
			}
		}

		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Pick up new directories so their contents are watched too
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.sendError(err)
			}
		}
	}

	rel, ok := w.relative(event.Name)
	if !ok {
		return
	}

	var op types.ChangeOp
	switch {
	case event.Has(fsnotify.Create):
		op = types.ChangeCreated
	case event.Has(fsnotify.Write):
		op = types.ChangeModified
	case event.Has(fsnotify.Remove):
		op = types.ChangeRemoved
	case event.Has(fsnotify.Rename):
		// fsnotify reports the old name only; the new name arrives as a Create
		op = types.ChangeRemoved
	default:
		// Ignore chmod events
		return
	}

	if op == types.ChangeModified {
		w.debounce(rel, op)
		return
	}
	w.publish(rel, op)
}

// relative maps an OS path to a vault path
func (w *Watcher) relative(osPath string) (string, bool) {
	rel, err := filepath.Rel(w.vault.Root(), osPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return types.CleanPath(filepath.ToSlash(rel)), true
}

func (w *Watcher) debounce(path string, op types.ChangeOp) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}

	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		closed := w.closed
		w.mu.Unlock()

		if !closed {
			w.publish(path, op)
		}
	})
}

func (w *Watcher) publish(path string, op types.ChangeOp) {
	if w.vault.IsEcho(path) {
		w.logger.Trace().Str("path", path).Stringer("op", op).Msg("Dropped echo of vault change")
		return
	}
	w.logger.Trace().Str("path", path).Stringer("op", op).Msg("External change")
	w.vault.Publish(types.ChangeEvent{Op: op, Path: path, Time: time.Now()})
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel full, drop the error
		w.logger.Warn().Err(err).Msg("Dropped watcher error")
	}
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// SetDebounceDelay sets the debounce delay for coalescing rapid writes
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)

	return w.watcher.Close()
}
