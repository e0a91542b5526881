package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/filelock"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/google/uuid"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SettingsStore reads and writes the settings document. The format follows
// the file extension: .yaml/.yml for YAML, anything else TOML.
type SettingsStore struct {
	path   string
	logger zerolog.Logger
}

// NewSettingsStore creates a store for the document at path
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{
		path:   path,
		logger: logging.GetLogger("config.settings").With().Str("path", path).Logger(),
	}
}

// Path returns the settings document path
func (s *SettingsStore) Path() string {
	return s.path
}

func (s *SettingsStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the settings. A missing document yields the defaults. Rules
// without an ID get a fresh one; a rule repeating an earlier ID is dropped.
func (s *SettingsStore) Load() (types.Settings, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.logger.Debug().Msg("No settings file, using defaults")
		return types.DefaultSettings(), nil
	}

	k := koanf.New(".")
	defaults := map[string]interface{}{
		"show_move_notification": true,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return types.Settings{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load settings defaults")
	}
	if err := k.Load(file.Provider(s.path), parserFor(s.path)); err != nil {
		return types.Settings{}, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse settings %s", s.path).
			WithDetail("path", s.path)
	}

	var settings types.Settings
	if err := k.UnmarshalWithConf("", &settings, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return types.Settings{}, errors.Wrapf(err, errors.ErrConfigParse, "invalid settings in %s", s.path).
			WithDetail("path", s.path)
	}
	if settings.Rules == nil {
		settings.Rules = []types.MoveRule{}
	}

	settings.Rules = s.normalizeRules(settings.Rules)
	return settings, nil
}

func (s *SettingsStore) normalizeRules(rules []types.MoveRule) []types.MoveRule {
	seen := make(map[string]bool, len(rules))
	out := make([]types.MoveRule, 0, len(rules))
	for _, rule := range rules {
		if rule.ID == "" {
			rule.ID = uuid.NewString()
			s.logger.Warn().Str("name", rule.Name).Str("id", rule.ID).Msg("Rule had no ID, assigned one")
		}
		if seen[rule.ID] {
			s.logger.Warn().Str("id", rule.ID).Str("name", rule.Name).Msg("Dropping rule with duplicate ID")
			continue
		}
		seen[rule.ID] = true
		out = append(out, rule)
	}
	return out
}

// Encode serializes settings in the store's format
func (s *SettingsStore) Encode(settings types.Settings) ([]byte, error) {
	if settings.Rules == nil {
		settings.Rules = []types.MoveRule{}
	}

	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(settings)
	} else {
		data, err = toml.Marshal(settings)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to encode settings")
	}
	return data, nil
}

// Save replaces the settings document
func (s *SettingsStore) Save(settings types.Settings) error {
	data, err := s.Encode(settings)
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(s.path, data); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to save settings %s", s.path).
			WithDetail("path", s.path)
	}
	s.logger.Debug().Int("rules", len(settings.Rules)).Msg("Saved settings")
	return nil
}

// Update loads the settings, applies fn and saves the result, all under the
// settings lock. Nothing is written when fn fails.
func (s *SettingsStore) Update(fn func(*types.Settings) error) (types.Settings, error) {
	var updated types.Settings
	err := filelock.WithLock(s.path, func() error {
		settings, err := s.Load()
		if err != nil {
			return err
		}
		if err := fn(&settings); err != nil {
			return err
		}

		data, err := s.Encode(settings)
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(s.path, data); err != nil {
			return errors.Wrapf(err, errors.ErrConfigSave, "failed to save settings %s", s.path).
				WithDetail("path", s.path)
		}
		updated = settings
		return nil
	})
	return updated, err
}

// AddRule appends rule, assigning an ID when it has none
func (s *SettingsStore) AddRule(rule types.MoveRule) (types.MoveRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.SourcePath = types.CleanPath(rule.SourcePath)
	rule.TargetPath = types.CleanPath(rule.TargetPath)

	_, err := s.Update(func(settings *types.Settings) error {
		for _, existing := range settings.Rules {
			if existing.ID == rule.ID {
				return errors.Newf(errors.ErrDuplicateRule, "a rule with ID %s already exists", rule.ID).
					WithDetail("id", rule.ID)
			}
		}
		settings.Rules = append(settings.Rules, rule)
		return nil
	})
	if err != nil {
		return types.MoveRule{}, err
	}
	s.logger.Info().Str("id", rule.ID).Str("name", rule.Name).Msg("Added rule")
	return rule, nil
}

// RemoveRule deletes the rule with the given ID or name
func (s *SettingsStore) RemoveRule(idOrName string) (types.MoveRule, error) {
	var removed types.MoveRule
	_, err := s.Update(func(settings *types.Settings) error {
		i := settings.IndexOf(idOrName)
		if i < 0 {
			return ruleNotFound(idOrName)
		}
		removed = settings.Rules[i]
		settings.Rules = append(settings.Rules[:i], settings.Rules[i+1:]...)
		return nil
	})
	if err != nil {
		return types.MoveRule{}, err
	}
	s.logger.Info().Str("id", removed.ID).Str("name", removed.Name).Msg("Removed rule")
	return removed, nil
}

// SetEnabled enables or disables the rule with the given ID or name
func (s *SettingsStore) SetEnabled(idOrName string, enabled bool) (types.MoveRule, error) {
	var changed types.MoveRule
	_, err := s.Update(func(settings *types.Settings) error {
		i := settings.IndexOf(idOrName)
		if i < 0 {
			return ruleNotFound(idOrName)
		}
		settings.Rules[i].Enabled = enabled
		changed = settings.Rules[i]
		return nil
	})
	if err != nil {
		return types.MoveRule{}, err
	}
	return changed, nil
}

// SetShowNotifications stores the notification flag
func (s *SettingsStore) SetShowNotifications(show bool) error {
	_, err := s.Update(func(settings *types.Settings) error {
		settings.ShowMoveNotification = show
		return nil
	})
	return err
}

func ruleNotFound(idOrName string) error {
	return errors.Newf(errors.ErrRuleNotFound, "no rule with ID or name %q", idOrName).
		WithDetail("rule", idOrName)
}
