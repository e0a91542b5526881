package types

import "strings"

// MoveRule pairs a source folder, a filename pattern and a target folder.
// The rule engine only ever reads rules; they are created, edited and
// removed through the settings store.
type MoveRule struct {
	// ID is assigned when the rule is created and never changes
	ID string `koanf:"id" toml:"id" yaml:"id" json:"id"`

	// Name is a display label, not necessarily unique
	Name string `koanf:"name" toml:"name" yaml:"name" json:"name"`

	// SourcePath is the vault-relative folder scanned recursively
	SourcePath string `koanf:"source_path" toml:"source_path" yaml:"source_path" json:"source_path"`

	// FilePattern is a regular expression tested against file base names
	FilePattern string `koanf:"file_pattern" toml:"file_pattern" yaml:"file_pattern" json:"file_pattern"`

	// TargetPath is the vault-relative folder matched files are moved into
	TargetPath string `koanf:"target_path" toml:"target_path" yaml:"target_path" json:"target_path"`

	// Enabled gates execution; disabled rules are no-ops
	Enabled bool `koanf:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
}

// DisplayName returns the rule name, falling back to its ID
func (r MoveRule) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.ID
}

// Settings is the persisted record the settings store owns
type Settings struct {
	Rules                []MoveRule `koanf:"rules" toml:"rules" yaml:"rules" json:"rules"`
	ShowMoveNotification bool       `koanf:"show_move_notification" toml:"show_move_notification" yaml:"show_move_notification" json:"show_move_notification"`
}

// DefaultSettings returns an empty rule list with notifications on
func DefaultSettings() Settings {
	return Settings{
		Rules:                []MoveRule{},
		ShowMoveNotification: true,
	}
}

// FindRule looks a rule up by ID first, then by name. Name lookups return
// the first rule in list order.
func (s Settings) FindRule(idOrName string) (MoveRule, bool) {
	for _, r := range s.Rules {
		if r.ID == idOrName {
			return r, true
		}
	}
	for _, r := range s.Rules {
		if r.Name == idOrName {
			return r, true
		}
	}
	return MoveRule{}, false
}

// IndexOf returns the list position of the rule with the given ID or name,
// or -1.
func (s Settings) IndexOf(idOrName string) int {
	for i, r := range s.Rules {
		if r.ID == idOrName {
			return i
		}
	}
	for i, r := range s.Rules {
		if r.Name == idOrName {
			return i
		}
	}
	return -1
}
