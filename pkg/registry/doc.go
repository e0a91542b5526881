// Package registry provides a generic, thread-safe, ordered registry keyed
// by name. The runner keeps its per-rule commands in one.
package registry
