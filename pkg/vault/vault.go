package vault

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Vault implements types.Tree over an afero filesystem
type Vault struct {
	fs     afero.Fs
	root   string
	logger zerolog.Logger

	subMu       sync.RWMutex
	subscribers map[int]func(types.ChangeEvent)
	nextSubID   int

	// destinations claimed by renames in flight
	claimMu sync.Mutex
	claimed map[string]struct{}

	// paths this vault changed itself, so the watcher can drop their echoes
	echoMu sync.Mutex
	echoes map[string]time.Time
}

// EchoWindow is how long a path changed through the vault API is treated as
// the vault's own change when the filesystem reports it back
const EchoWindow = 2 * time.Second

var _ types.Tree = (*Vault)(nil)

// New creates a vault over an existing filesystem
func New(fs afero.Fs) *Vault {
	return &Vault{
		fs:          fs,
		logger:      logging.GetLogger("vault"),
		subscribers: make(map[int]func(types.ChangeEvent)),
		claimed:     make(map[string]struct{}),
		echoes:      make(map[string]time.Time),
	}
}

// NewMemory creates an empty in-memory vault
func NewMemory() *Vault {
	return New(afero.NewMemMapFs())
}

// NewOS opens the directory at root as a vault
func NewOS(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVaultNotFound, "cannot resolve vault root %s", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVaultNotFound, "vault root %s not found", abs)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrNotADirectory, "vault root %s is not a directory", abs)
	}

	v := New(afero.NewBasePathFs(afero.NewOsFs(), abs))
	v.root = abs
	v.logger = v.logger.With().Str("root", abs).Logger()
	return v, nil
}

// Fs returns the underlying filesystem
func (v *Vault) Fs() afero.Fs {
	return v.fs
}

// Root returns the OS directory backing the vault, or "" for in-memory vaults
func (v *Vault) Root() string {
	return v.root
}

// fsPath maps a vault path onto the afero filesystem
func fsPath(p string) string {
	return "/" + types.CleanPath(p)
}

// Resolve looks up a vault path
func (v *Vault) Resolve(p string) (types.Entry, bool) {
	p = types.CleanPath(p)
	info, err := v.fs.Stat(fsPath(p))
	if err != nil {
		return types.Entry{}, false
	}
	return entryFor(p, info), true
}

func entryFor(p string, info os.FileInfo) types.Entry {
	kind := types.KindFile
	if info.IsDir() {
		kind = types.KindDirectory
	}
	return types.Entry{Path: p, Kind: kind}
}

// CreateDirectory creates a folder and any missing parents
func (v *Vault) CreateDirectory(p string) error {
	p = types.CleanPath(p)
	if entry, ok := v.Resolve(p); ok {
		if entry.IsDir() {
			return errors.Newf(errors.ErrAlreadyExists, "folder already exists: %s", p).
				WithDetail("path", p)
		}
		return errors.Newf(errors.ErrAlreadyExists, "a file already exists at %s", p).
			WithDetail("path", p)
	}

	// Every missing ancestor is created too and must be remembered as ours
	created := []string{p}
	for dir := types.ParentPath(p); dir != ""; dir = types.ParentPath(dir) {
		if _, ok := v.Resolve(dir); ok {
			break
		}
		created = append(created, dir)
	}

	if err := v.fs.MkdirAll(fsPath(p), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "cannot create folder %s", p).
			WithDetail("path", p)
	}

	v.logger.Debug().Str("path", p).Int("folders", len(created)).Msg("Created folder")
	v.noteEcho(created...)
	v.Publish(types.ChangeEvent{Op: types.ChangeCreated, Path: p, Time: time.Now()})
	return nil
}

// ListChildren returns the direct children of dir, sorted by name
func (v *Vault) ListChildren(dir types.Entry) ([]types.Entry, error) {
	if !dir.IsDir() {
		return nil, errors.Newf(errors.ErrNotADirectory, "not a folder: %s", dir.Path)
	}

	infos, err := afero.ReadDir(v.fs, fsPath(dir.Path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "cannot list %s", dir.Path).
			WithDetail("path", dir.Path)
	}

	children := make([]types.Entry, 0, len(infos))
	for _, info := range infos {
		children = append(children, entryFor(types.JoinPath(dir.Path, info.Name()), info))
	}
	return children, nil
}

// Rename moves one file to newPath. The destination folder must exist and
// the destination itself must not.
func (v *Vault) Rename(file types.Entry, newPath string) error {
	oldPath := types.CleanPath(file.Path)
	newPath = types.CleanPath(newPath)

	if oldPath == newPath {
		return nil
	}

	if _, ok := v.Resolve(oldPath); !ok {
		return errors.Newf(errors.ErrNotFound, "file not found: %s", oldPath).
			WithDetail("path", oldPath)
	}

	parent, ok := v.Resolve(types.ParentPath(newPath))
	if !ok || !parent.IsDir() {
		return errors.Newf(errors.ErrParentNotFound, "destination folder not found: %s", types.ParentPath(newPath)).
			WithDetail("path", newPath)
	}

	if !v.claim(newPath) {
		return errors.Newf(errors.ErrAlreadyExists, "destination file already exists: %s", newPath).
			WithDetail("path", newPath)
	}
	defer v.release(newPath)

	if err := v.fs.Rename(fsPath(oldPath), fsPath(newPath)); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "cannot rename %s to %s", oldPath, newPath).
			WithDetail("source", oldPath).
			WithDetail("destination", newPath)
	}

	v.noteEcho(oldPath, newPath)
	v.Publish(types.ChangeEvent{Op: types.ChangeRenamed, Path: newPath, OldPath: oldPath, Time: time.Now()})
	return nil
}

func (v *Vault) noteEcho(paths ...string) {
	now := time.Now()
	v.echoMu.Lock()
	defer v.echoMu.Unlock()
	for p, at := range v.echoes {
		if now.Sub(at) > EchoWindow {
			delete(v.echoes, p)
		}
	}
	for _, p := range paths {
		v.echoes[p] = now
	}
}

// IsEcho reports whether p was changed through the vault API within the
// last EchoWindow
func (v *Vault) IsEcho(p string) bool {
	v.echoMu.Lock()
	defer v.echoMu.Unlock()
	at, ok := v.echoes[types.CleanPath(p)]
	return ok && time.Since(at) <= EchoWindow
}

// claim reserves a destination for a rename. It fails when the destination
// already exists or another rename holds it.
func (v *Vault) claim(p string) bool {
	v.claimMu.Lock()
	defer v.claimMu.Unlock()

	if _, held := v.claimed[p]; held {
		return false
	}
	if _, exists := v.Resolve(p); exists {
		return false
	}
	v.claimed[p] = struct{}{}
	return true
}

func (v *Vault) release(p string) {
	v.claimMu.Lock()
	delete(v.claimed, p)
	v.claimMu.Unlock()
}

// OnChange registers a change subscriber
func (v *Vault) OnChange(callback func(types.ChangeEvent)) func() {
	v.subMu.Lock()
	id := v.nextSubID
	v.nextSubID++
	v.subscribers[id] = callback
	v.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.subMu.Lock()
			delete(v.subscribers, id)
			v.subMu.Unlock()
		})
	}
}

// Publish delivers an event to every subscriber. Subscribers run on the
// publishing goroutine, outside any vault lock.
func (v *Vault) Publish(event types.ChangeEvent) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	v.subMu.RLock()
	callbacks := make([]func(types.ChangeEvent), 0, len(v.subscribers))
	for _, cb := range v.subscribers {
		callbacks = append(callbacks, cb)
	}
	v.subMu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

// Subscribers returns the number of registered subscribers
func (v *Vault) Subscribers() int {
	v.subMu.RLock()
	defer v.subMu.RUnlock()
	return len(v.subscribers)
}
