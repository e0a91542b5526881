// Package walker collects the files below a vault folder whose base names
// match a pattern.
//
// The walk is exhaustive and never prunes: every descendant file is tested
// exactly once and folders are never tested. Traversal uses an explicit LIFO
// stack of pending folders, so deep trees cannot exhaust the goroutine stack.
// A folder that cannot be listed is logged and skipped; its siblings are still
// visited.
package walker
