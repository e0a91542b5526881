// Package testutil provides utilities for testing tidyvault components.
//
// Key components:
//   - TestEnvironment: vault plus isolated XDG directories, in memory or on disk
//   - CreateFileT / CreateDirT: declarative vault setup
//   - MockTree: types.Tree wrapper whose operations can be overridden for
//     failure injection, with per-operation call counts
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly for speed and isolation
//   - Only watcher, journal and settings tests need EnvIsolated
//   - All test data should be defined inline, not in external files
package testutil
