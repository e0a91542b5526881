// Package types defines the core types and interfaces used throughout tidyvault.
// This includes the MoveRule and Settings records, the Tree capability the
// rule engine calls into, and the per-invocation results (match sets, move
// outcomes and run reports).
package types
