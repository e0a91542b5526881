package types

import (
	"path"
	"strings"
)

// Vault paths are slash separated and relative to the vault root. The root
// itself is the empty string.

// CleanPath normalizes a user supplied vault path
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + strings.TrimSpace(p))
	return strings.TrimPrefix(p, "/")
}

// JoinPath joins a folder and a name into a vault path
func JoinPath(dir, name string) string {
	dir = CleanPath(dir)
	if dir == "" {
		return CleanPath(name)
	}
	return CleanPath(dir + "/" + name)
}

// BaseName returns the last element of a vault path
func BaseName(p string) string {
	p = CleanPath(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// ParentPath returns the folder containing p; the root's parent is the root
func ParentPath(p string) string {
	p = CleanPath(p)
	dir := path.Dir("/" + p)
	return strings.TrimPrefix(dir, "/")
}

// IsWithin reports whether p is dir itself or lies somewhere below it
func IsWithin(p, dir string) bool {
	p = CleanPath(p)
	dir = CleanPath(dir)
	if dir == "" || p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}
