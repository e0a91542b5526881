// Package config loads tidyvault's application configuration and owns the
// settings document that holds the move rules.
//
// Configuration is layered with koanf: embedded defaults, then the user's
// config file, then TIDYVAULT_ environment variables. The settings document
// is separate because the application writes it; saves are guarded by a file
// lock and replace the file atomically.
package config
