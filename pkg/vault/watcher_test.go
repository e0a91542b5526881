package vault_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []types.ChangeEvent
}

func (l *eventLog) add(e types.ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) has(op types.ChangeOp, path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Op == op && e.Path == path {
			return true
		}
	}
	return false
}

func TestWatcherRequiresOSVault(t *testing.T) {
	_, err := vault.NewWatcher(vault.NewMemory())
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestWatcherPublishesExternalChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Inbox"), 0755))

	v, err := vault.NewOS(root)
	require.NoError(t, err)

	w, err := vault.NewWatcher(v)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	w.SetDebounceDelay(10 * time.Millisecond)

	log := &eventLog{}
	unsubscribe := v.OnChange(log.add)
	defer unsubscribe()

	require.NoError(t, os.WriteFile(filepath.Join(root, "Inbox", "a.md"), []byte("x"), 0644))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeCreated, "Inbox/a.md")
	}, 2*time.Second, 10*time.Millisecond)

	// Subdirectories created after start are watched too
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Inbox", "sub"), 0755))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeCreated, "Inbox/sub")
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "Inbox", "sub", "b.md"), []byte("y"), 0644))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeCreated, "Inbox/sub/b.md")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(root, "Inbox", "a.md")))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeRemoved, "Inbox/a.md")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	v, err := vault.NewOS(t.TempDir())
	require.NoError(t, err)

	w, err := vault.NewWatcher(v)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcherDropsEchoesOfVaultChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Inbox"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Notes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Inbox", "a.md"), []byte("x"), 0644))

	v, err := vault.NewOS(root)
	require.NoError(t, err)

	w, err := vault.NewWatcher(v)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	log := &eventLog{}
	unsubscribe := v.OnChange(log.add)
	defer unsubscribe()

	file, ok := v.Resolve("Inbox/a.md")
	require.True(t, ok)
	require.NoError(t, v.Rename(file, "Notes/a.md"))
	assert.True(t, v.IsEcho("Notes/a.md"))

	// An external write afterwards proves the watcher has caught up
	require.NoError(t, os.WriteFile(filepath.Join(root, "Inbox", "b.md"), []byte("y"), 0644))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeCreated, "Inbox/b.md")
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, log.has(types.ChangeRenamed, "Notes/a.md"))
	assert.False(t, log.has(types.ChangeCreated, "Notes/a.md"))
	assert.False(t, log.has(types.ChangeRemoved, "Inbox/a.md"))
}

func TestWatcherDropsEchoesOfCreatedParents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Inbox"), 0755))

	v, err := vault.NewOS(root)
	require.NoError(t, err)

	w, err := vault.NewWatcher(v)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	log := &eventLog{}
	unsubscribe := v.OnChange(log.add)
	defer unsubscribe()

	require.NoError(t, v.CreateDirectory("Archive/2024/PDFs"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "Inbox", "b.md"), []byte("y"), 0644))
	assert.Eventually(t, func() bool {
		return log.has(types.ChangeCreated, "Inbox/b.md")
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, log.has(types.ChangeCreated, "Archive/2024/PDFs"))
	assert.False(t, log.has(types.ChangeCreated, "Archive"))
	assert.False(t, log.has(types.ChangeCreated, "Archive/2024"))
}
