package cli

import (
	"io"
	"os"

	"github.com/arthur-debert/tidyvault/pkg/config"
	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/arthur-debert/tidyvault/pkg/runner"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/ui"
	"github.com/arthur-debert/tidyvault/pkg/vault"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity    int
	configFile   string
	vaultRoot    string
	settingsPath string
	noNotify     bool
	output       string
}

// overrides maps flags the user set onto config keys
func (o *globalOptions) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	flags := cmd.Flags()
	if flags.Changed("vault") {
		out["vault.root"] = o.vaultRoot
	}
	if flags.Changed("settings") {
		out["settings.path"] = o.settingsPath
	}
	if flags.Changed("output") {
		out["output.format"] = o.output
	}
	return out
}

// app is the set of collaborators a command works with. Parts that touch
// the vault or the journal are opened on demand.
type app struct {
	cfg      *config.Config
	store    *config.SettingsStore
	noNotify bool
	out      io.Writer
	errOut   io.Writer

	vault   *vault.Vault
	journal *journal.Journal
}

func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: opts.configFile,
		Overrides:  opts.overrides(cmd),
	})
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("cli")
	logger.Debug().
		Str("vault", cfg.Vault.Root).
		Str("settings", cfg.Settings.Path).
		Msg("Configuration loaded")

	return &app{
		cfg:      cfg,
		store:    config.NewSettingsStore(cfg.Settings.Path),
		noNotify: opts.noNotify,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}, nil
}

func (a *app) openVault() (*vault.Vault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := vault.NewOS(a.cfg.Vault.Root)
	if err != nil {
		return nil, err
	}
	a.vault = v
	return v, nil
}

// openJournal returns nil when the journal is disabled
func (a *app) openJournal() (*journal.Journal, error) {
	if !a.cfg.Journal.Enabled {
		return nil, nil
	}
	if a.journal != nil {
		return a.journal, nil
	}
	j, err := journal.Open(a.cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

func (a *app) format() (ui.Format, error) {
	return ui.ParseFormat(a.cfg.Output.Format)
}

func (a *app) renderer() (ui.Renderer, error) {
	format, err := a.format()
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, a.out)
}

// notifier writes notices to stderr, styled only for terminal output
func (a *app) notifier() notify.Notifier {
	format, _ := a.format()
	if format == ui.FormatAuto {
		format = ui.FormatText
		if file, ok := a.errOut.(*os.File); ok {
			format = ui.DetectFormat(file)
		}
	}
	return &notify.Terminal{Writer: a.errOut, Plain: format != ui.FormatTerminal}
}

// newRunner builds a rule runner over the vault, registered with settings
func (a *app) newRunner(settings types.Settings, extra ...runner.Option) (*runner.Runner, error) {
	v, err := a.openVault()
	if err != nil {
		return nil, err
	}

	opts := []runner.Option{
		runner.WithNotifier(a.notifier()),
		runner.WithPatternOptions(a.cfg.PatternOptions()),
		runner.WithMaxConcurrent(a.cfg.Moves.MaxConcurrent),
	}

	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	if j != nil {
		opts = append(opts, runner.WithRecorder(j))
	}

	r := runner.New(v, append(opts, extra...)...)
	a.reconfigure(r, settings)
	return r, nil
}

// reconfigure registers settings with r, honoring --no-notify
func (a *app) reconfigure(r *runner.Runner, settings types.Settings) runner.ReconfigureResult {
	if a.noNotify {
		settings.ShowMoveNotification = false
	}
	return r.Reconfigure(settings)
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger := logging.GetLogger("cli")
			logger.Warn().Err(err).Msg("Failed to close journal")
		}
	}
}

// findRule resolves a rule by ID or name
func findRule(settings types.Settings, idOrName string) (types.MoveRule, error) {
	rule, ok := settings.FindRule(idOrName)
	if !ok {
		return types.MoveRule{}, errors.Newf(errors.ErrRuleNotFound, "no rule with ID or name %q", idOrName).
			WithDetail("rule", idOrName)
	}
	return rule, nil
}
