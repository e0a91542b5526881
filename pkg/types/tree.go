package types

import "time"

// EntryKind tags a tree entry as a file or a directory
type EntryKind int

const (
	// KindFile is a leaf entry
	KindFile EntryKind = iota
	// KindDirectory is a folder entry
	KindDirectory
)

// String returns the kind name
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is a typed handle on a vault path
type Entry struct {
	Path string
	Kind EntryKind
}

// Name returns the base name of the entry
func (e Entry) Name() string {
	return BaseName(e.Path)
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// ChangeOp identifies the kind of tree mutation
type ChangeOp int

const (
	ChangeCreated ChangeOp = iota
	ChangeModified
	ChangeRenamed
	ChangeRemoved
)

// String returns a human-readable representation of the change
func (op ChangeOp) String() string {
	switch op {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeRenamed:
		return "renamed"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent is published on every tree mutation
type ChangeEvent struct {
	Op      ChangeOp
	Path    string
	OldPath string // set for renames
	Time    time.Time
}

// Tree is the file-tree capability the rule engine calls into.
type Tree interface {
	// Resolve looks up a path. The bool is false when nothing exists there.
	Resolve(path string) (Entry, bool)

	// CreateDirectory creates a folder, including missing parents
	CreateDirectory(path string) error

	// ListChildren returns the direct children of a directory
	ListChildren(dir Entry) ([]Entry, error)

	// Rename atomically moves one file to newPath
	Rename(file Entry, newPath string) error

	// OnChange subscribes to tree mutations and returns an unsubscribe func
	OnChange(callback func(ChangeEvent)) func()
}
