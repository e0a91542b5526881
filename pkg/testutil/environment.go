// pkg/testutil/environment.go
// DEPENDENCIES: vault
// PURPOSE: Orchestrate test environments with an isolated vault

package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/vault"
	"github.com/spf13/afero"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory vault
	EnvIsolated                  // Real vault in a temp directory
)

// TestEnvironment provides a vault and isolated config/state directories
type TestEnvironment struct {
	Vault *vault.Vault

	// Only set for EnvIsolated
	VaultRoot string

	ConfigHome string
	StateHome  string

	Type EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{
		t:    t,
		Type: envType,
	}

	base := t.TempDir()
	env.ConfigHome = filepath.Join(base, "config")
	env.StateHome = filepath.Join(base, "state")
	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)

	switch envType {
	case EnvMemoryOnly:
		env.Vault = vault.NewMemory()
	case EnvIsolated:
		env.VaultRoot = filepath.Join(base, "vault")
		if err := afero.NewOsFs().MkdirAll(env.VaultRoot, 0755); err != nil {
			t.Fatalf("Failed to create vault root: %v", err)
		}
		v, err := vault.NewOS(env.VaultRoot)
		if err != nil {
			t.Fatalf("Failed to open vault: %v", err)
		}
		env.Vault = v
	}

	return env
}

// WithFiles creates every path in files with its content
func (env *TestEnvironment) WithFiles(files map[string]string) *TestEnvironment {
	env.t.Helper()
	for path, content := range files {
		CreateFileT(env.t, env.Vault, path, content)
	}
	return env
}

// Files returns every file path in the vault, sorted
func (env *TestEnvironment) Files() []string {
	env.t.Helper()
	return ListFilesT(env.t, env.Vault)
}

// NewMemoryVault returns an in-memory vault populated with files
func NewMemoryVault(t *testing.T, files map[string]string) *vault.Vault {
	t.Helper()
	v := vault.NewMemory()
	for path, content := range files {
		CreateFileT(t, v, path, content)
	}
	return v
}

// ListFilesT walks the whole vault and returns every file path, sorted
func ListFilesT(t *testing.T, v *vault.Vault) []string {
	t.Helper()

	var files []string
	root, ok := v.Resolve("")
	if !ok {
		t.Fatalf("vault root not found")
	}
	stack := []types.Entry{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children, err := v.ListChildren(dir)
		if err != nil {
			t.Fatalf("Failed to list %s: %v", dir.Path, err)
		}
		for _, child := range children {
			if child.IsDir() {
				stack = append(stack, child)
				continue
			}
			files = append(files, child.Path)
		}
	}

	sort.Strings(files)
	return files
}
