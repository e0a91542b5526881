// Package vault provides the file tree rules operate over.
//
// A Vault implements types.Tree on top of an afero filesystem: an OS
// directory in production (afero.BasePathFs keeps every operation inside the
// vault root) or afero.MemMapFs in tests. Vault paths are slash separated and
// relative to the root.
//
// Every successful mutation made through the Vault is published to the
// subscribers registered with OnChange. A Watcher can additionally feed
// changes made by other processes into the same subscription bus.
//
// Rename never overwrites: if the destination exists, or another rename in
// flight has claimed the same destination, it fails with ALREADY_EXISTS.
package vault
