package testutil

import (
	"sync"

	"github.com/arthur-debert/tidyvault/pkg/types"
)

// MockTree is a types.Tree whose operations can be overridden one at a time.
// Operations without an override are forwarded to Base; with no Base they
// behave like an empty tree.
type MockTree struct {
	Base types.Tree

	ResolveFunc         func(path string) (types.Entry, bool)
	CreateDirectoryFunc func(path string) error
	ListChildrenFunc    func(dir types.Entry) ([]types.Entry, error)
	RenameFunc          func(file types.Entry, newPath string) error
	OnChangeFunc        func(callback func(types.ChangeEvent)) func()

	mu    sync.Mutex
	calls map[string]int
}

var _ types.Tree = (*MockTree)(nil)

// NewMockTree wraps base
func NewMockTree(base types.Tree) *MockTree {
	return &MockTree{Base: base}
}

func (m *MockTree) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

// Calls returns how many times op was invoked
func (m *MockTree) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Resolve runs the override or forwards to Base
func (m *MockTree) Resolve(path string) (types.Entry, bool) {
	m.record("Resolve")
	if m.ResolveFunc != nil {
		return m.ResolveFunc(path)
	}
	if m.Base != nil {
		return m.Base.Resolve(path)
	}
	return types.Entry{}, false
}

// CreateDirectory runs the override or forwards to Base
func (m *MockTree) CreateDirectory(path string) error {
	m.record("CreateDirectory")
	if m.CreateDirectoryFunc != nil {
		return m.CreateDirectoryFunc(path)
	}
	if m.Base != nil {
		return m.Base.CreateDirectory(path)
	}
	return nil
}

// ListChildren runs the override or forwards to Base
func (m *MockTree) ListChildren(dir types.Entry) ([]types.Entry, error) {
	m.record("ListChildren")
	if m.ListChildrenFunc != nil {
		return m.ListChildrenFunc(dir)
	}
	if m.Base != nil {
		return m.Base.ListChildren(dir)
	}
	return nil, nil
}

// Rename runs the override or forwards to Base
func (m *MockTree) Rename(file types.Entry, newPath string) error {
	m.record("Rename")
	if m.RenameFunc != nil {
		return m.RenameFunc(file, newPath)
	}
	if m.Base != nil {
		return m.Base.Rename(file, newPath)
	}
	return nil
}

// OnChange runs the override or forwards to Base
func (m *MockTree) OnChange(callback func(types.ChangeEvent)) func() {
	m.record("OnChange")
	if m.OnChangeFunc != nil {
		return m.OnChangeFunc(callback)
	}
	if m.Base != nil {
		return m.Base.OnChange(callback)
	}
	return func() {}
}
