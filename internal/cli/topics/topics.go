// Package topics embeds tidyvault's help topics
package topics

import "embed"

// FS holds the markdown topics shown by "tidyvault help <topic>"
//
//go:embed *.md
var FS embed.FS
