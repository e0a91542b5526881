package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/pattern"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix starts every environment override
const EnvPrefix = "TIDYVAULT_"

// Config is the application configuration
type Config struct {
	Vault    VaultConfig    `koanf:"vault"`
	Settings SettingsConfig `koanf:"settings"`
	Pattern  PatternConfig  `koanf:"pattern"`
	Moves    MovesConfig    `koanf:"moves"`
	Journal  JournalConfig  `koanf:"journal"`
	Output   OutputConfig   `koanf:"output"`
}

type VaultConfig struct {
	Root string `koanf:"root"`
}

type SettingsConfig struct {
	Path string `koanf:"path"`
}

type PatternConfig struct {
	Engine       string        `koanf:"engine"`
	MatchTimeout time.Duration `koanf:"match_timeout"`
}

type MovesConfig struct {
	MaxConcurrent int `koanf:"max_concurrent"`
}

type JournalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type OutputConfig struct {
	Format string `koanf:"format"`
}

// LoadOptions selects the user config file and extra overrides
type LoadOptions struct {
	// ConfigFile replaces the default user config path. A missing default
	// file is fine; a missing explicit file is an error.
	ConfigFile string

	// Overrides are applied last, keyed like the config file ("vault.root")
	Overrides map[string]interface{}
}

// Load builds the configuration from embedded defaults, the user config
// file, TIDYVAULT_ environment variables and opts.Overrides, in that order.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config file
	path := opts.ConfigFile
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
	} else if explicit {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path).
			WithDetail("path", path)
	}

	// 3. Environment, TIDYVAULT_PATTERN_MATCH_TIMEOUT -> pattern.match_timeout
	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flag overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := postProcessConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps an environment variable to a config key. Only the first
// underscore separates section from key, so multi-word keys survive.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func postProcessConfig(cfg *Config) error {
	engine, err := pattern.ParseEngine(cfg.Pattern.Engine)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid pattern.engine")
	}
	cfg.Pattern.Engine = string(engine)

	if cfg.Pattern.MatchTimeout <= 0 {
		cfg.Pattern.MatchTimeout = pattern.DefaultMatchTimeout
	}

	if cfg.Moves.MaxConcurrent < 0 {
		return errors.Newf(errors.ErrConfigParse, "moves.max_concurrent must not be negative, got %d", cfg.Moves.MaxConcurrent)
	}

	if cfg.Vault.Root == "" {
		cfg.Vault.Root = "."
	}
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = DefaultSettingsFile()
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalFile()
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "auto"
	}
	return nil
}

// PatternOptions returns the pattern compile options for this config
func (c *Config) PatternOptions() pattern.Options {
	return pattern.Options{
		Engine:       pattern.Engine(c.Pattern.Engine),
		MatchTimeout: c.Pattern.MatchTimeout,
	}
}
