package testutil

import (
	"testing"

	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/vault"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateFileT creates a file in the vault, creating parent folders as needed
func CreateFileT(t *testing.T, v *vault.Vault, path, content string) {
	t.Helper()

	path = types.CleanPath(path)
	parent := types.ParentPath(path)
	if parent != "" {
		require.NoError(t, v.Fs().MkdirAll("/"+parent, 0755), "failed to create %s", parent)
	}
	require.NoError(t, afero.WriteFile(v.Fs(), "/"+path, []byte(content), 0644), "failed to create %s", path)
}

// CreateDirT creates a folder in the vault
func CreateDirT(t *testing.T, v *vault.Vault, path string) {
	t.Helper()
	require.NoError(t, v.Fs().MkdirAll("/"+types.CleanPath(path), 0755), "failed to create %s", path)
}

// ReadFileT returns the content of a vault file
func ReadFileT(t *testing.T, v *vault.Vault, path string) string {
	t.Helper()
	data, err := afero.ReadFile(v.Fs(), "/"+types.CleanPath(path))
	require.NoError(t, err, "failed to read %s", path)
	return string(data)
}

// AssertFileExists checks that a file exists at path
func AssertFileExists(t *testing.T, v *vault.Vault, path string, msgAndArgs ...interface{}) {
	t.Helper()
	entry, ok := v.Resolve(path)
	if assert.True(t, ok, append([]interface{}{"expected file at %s", path}, msgAndArgs...)...) {
		assert.False(t, entry.IsDir(), "expected %s to be a file", path)
	}
}

// AssertDirExists checks that a folder exists at path
func AssertDirExists(t *testing.T, v *vault.Vault, path string) {
	t.Helper()
	entry, ok := v.Resolve(path)
	if assert.True(t, ok, "expected folder at %s", path) {
		assert.True(t, entry.IsDir(), "expected %s to be a folder", path)
	}
}

// AssertNoFile checks that nothing exists at path
func AssertNoFile(t *testing.T, v *vault.Vault, path string) {
	t.Helper()
	_, ok := v.Resolve(path)
	assert.False(t, ok, "expected nothing at %s", path)
}
