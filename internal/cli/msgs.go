package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort         = "Keep a notes vault tidy with file move rules"
	MsgRunShort          = "Run move rules"
	MsgRulesShort        = "Manage move rules"
	MsgRulesListShort    = "List configured rules"
	MsgRulesShowShort    = "Show a rule"
	MsgRulesAddShort     = "Add a rule"
	MsgRulesRemoveShort  = "Remove a rule"
	MsgRulesEnableShort  = "Enable a rule"
	MsgRulesDisableShort = "Disable a rule"
	MsgHistoryShort      = "Show recent rule invocations"
	MsgWatchShort        = "Watch the vault and report changes"
	MsgConfigShort       = "Inspect configuration"
	MsgConfigPathShort   = "Print configuration file locations"
	MsgConfigShowShort   = "Print the effective configuration"
	MsgNotifyShort       = "Turn move notifications on or off"
	MsgVersionShort      = "Print version information"
	MsgCompletionShort   = "Generate shell completion script"

	// Status messages
	MsgRuleAdded      = "Added rule %s (%s)\n"
	MsgRuleRemoved    = "Removed rule %s (%s)\n"
	MsgRuleEnabled    = "Enabled rule %s\n"
	MsgRuleDisabled   = "Disabled rule %s\n"
	MsgNotifySet      = "Move notifications %s\n"
	MsgNoRulesToRun   = "No enabled rules to run"
	MsgHistoryPruned  = "Removed %d invocation(s) older than %s\n"
	MsgJournalOff     = "The journal is disabled (journal.enabled = false)"
	MsgWatchStarted   = "Watching %s (Ctrl-C to stop)\n"
	MsgWatchReloaded  = "Reloaded settings: %d added, %d removed, %d updated\n"
	MsgMetricsServing = "Serving metrics on http://%s/metrics\n"

	// Error messages
	MsgErrNoRulesGiven  = "name at least one rule or pass --all"
	MsgErrRunFailed     = "%d of %d invocation(s) failed"
	MsgErrMovesFailed   = "%d file(s) could not be moved"
	MsgErrMissingFlag   = "--%s is required"
	MsgErrInvalidFormat = "output format %q is not supported here"
	MsgErrRootFolder    = "--%s must name a folder inside the vault, not the vault root"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file (default $XDG_CONFIG_HOME/tidyvault/config.toml)"
	MsgFlagVault    = "Vault root folder (default: current directory)"
	MsgFlagSettings = "Settings file holding the rules"
	MsgFlagNoNotify = "Do not print move notifications"
	MsgFlagOutput   = "Output format: auto, term, text or json"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/rules-add-example.txt
	msgRulesAddExampleRaw string
	MsgRulesAddExample    = strings.TrimRight(msgRulesAddExampleRaw, "\n")

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)
)
