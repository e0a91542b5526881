// Package filelock guards read-modify-write cycles on small files shared
// between processes, such as the settings document.
package filelock

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/gofrs/flock"
)

// LockSuffix is appended to a file path to name its lock file
const LockSuffix = ".lock"

// FileLock is an exclusive advisory lock held on a sidecar file
type FileLock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock for path. The lock file is path + LockSuffix.
func New(path string) *FileLock {
	lockPath := path + LockSuffix
	return &FileLock{
		flock: flock.New(lockPath),
		path:  lockPath,
	}
}

// Path returns the lock file path
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock blocks until the lock is acquired
func (fl *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "cannot create lock directory for %s", fl.path)
	}
	if err := fl.flock.Lock(); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to acquire lock on %s", fl.path)
	}
	return nil
}

// TryLock acquires the lock without blocking. It returns false when another
// holder has it.
func (fl *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrPermission, "cannot create lock directory for %s", fl.path)
	}
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrPermission, "failed to try lock on %s", fl.path)
	}
	return acquired, nil
}

// Unlock releases the lock
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to release lock on %s", fl.path)
	}
	return nil
}

// WithLock runs fn while holding the lock for path
func WithLock(path string, fn func() error) error {
	lock := New(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

// AtomicWrite replaces path with data. Readers see either the old content or
// the new content, never a partial write.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to create directory %s", dir)
	}

	// Same directory so the final rename stays on one filesystem
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrPermission, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to close temp file")
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrap(err, errors.ErrPermission, "failed to set permissions")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "failed to replace %s", path)
	}

	committed = true
	return nil
}

// LockAndWrite atomically writes path while holding its lock
func LockAndWrite(path string, data []byte) error {
	return WithLock(path, func() error {
		return AtomicWrite(path, data)
	})
}
