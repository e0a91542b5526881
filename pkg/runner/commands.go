package runner

import (
	"strings"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/types"
)

// CommandPrefix starts the ID of every per-rule command
const CommandPrefix = "run-rule:"

// Command runs one rule
type Command struct {
	ID   string
	Name string
	Rule types.MoveRule
}

// CommandID returns the command ID for a rule ID
func CommandID(ruleID string) string {
	return CommandPrefix + ruleID
}

// RuleIDFromCommand strips the command prefix; ok is false for other IDs
func RuleIDFromCommand(id string) (string, bool) {
	if !strings.HasPrefix(id, CommandPrefix) {
		return "", false
	}
	return strings.TrimPrefix(id, CommandPrefix), true
}

func commandFor(rule types.MoveRule) Command {
	return Command{
		ID:   CommandID(rule.ID),
		Name: "Run rule: " + rule.DisplayName(),
		Rule: rule,
	}
}

// ReconfigureResult lists the rule IDs affected by a Reconfigure call
type ReconfigureResult struct {
	Added      []string
	Removed    []string
	Updated    []string
	Unchanged  []string
	Duplicates []string
}

// Changed reports whether any command was added, removed or updated
func (r ReconfigureResult) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Updated) > 0
}

// Reconfigure brings the registered commands in line with settings and
// stores the notification flag. Rules with an empty ID are ignored; when two
// rules share an ID the first one wins.
func (r *Runner) Reconfigure(settings types.Settings) ReconfigureResult {
	var result ReconfigureResult

	r.mu.Lock()
	defer r.mu.Unlock()

	r.showNotifications = settings.ShowMoveNotification

	wanted := make(map[string]types.MoveRule, len(settings.Rules))
	var order []string
	for _, rule := range settings.Rules {
		if rule.ID == "" {
			r.logger.Warn().Str("name", rule.Name).Msg("Ignoring rule without an ID")
			continue
		}
		if _, dup := wanted[rule.ID]; dup {
			r.logger.Warn().Str("rule", rule.ID).Str("name", rule.Name).Msg("Ignoring rule with duplicate ID")
			result.Duplicates = append(result.Duplicates, rule.ID)
			continue
		}
		wanted[rule.ID] = rule
		order = append(order, rule.ID)
	}

	existing := make(map[string]Command)
	for _, cmd := range r.commands.Items() {
		existing[cmd.Rule.ID] = cmd
		if _, keep := wanted[cmd.Rule.ID]; !keep {
			result.Removed = append(result.Removed, cmd.Rule.ID)
		}
	}

	// Re-register everything so command order follows settings order
	r.commands.Clear()
	for _, ruleID := range order {
		rule := wanted[ruleID]
		prev, had := existing[ruleID]
		switch {
		case !had:
			result.Added = append(result.Added, ruleID)
		case prev.Rule != rule:
			result.Updated = append(result.Updated, ruleID)
		default:
			result.Unchanged = append(result.Unchanged, ruleID)
		}
		_ = r.commands.Register(CommandID(ruleID), commandFor(rule))
	}

	r.logger.Debug().
		Strs("added", result.Added).
		Strs("removed", result.Removed).
		Strs("updated", result.Updated).
		Bool("notify", r.showNotifications).
		Msg("Reconfigured rule commands")

	return result
}

// Commands returns the registered commands in settings order
func (r *Runner) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands.Items()
}

// Command looks up a registered command by its ID
func (r *Runner) Command(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, err := r.commands.Get(id)
	return cmd, err == nil
}

// RunCommand runs the rule behind a registered command
func (r *Runner) RunCommand(id string) (*types.RunReport, error) {
	cmd, ok := r.Command(id)
	if !ok {
		return nil, errors.Newf(errors.ErrRuleNotFound, "no command %s", id).
			WithDetail("command", id)
	}
	return r.Run(cmd.Rule), nil
}

// RunAll runs every registered enabled rule, one after another
func (r *Runner) RunAll() []*types.RunReport {
	var reports []*types.RunReport
	for _, cmd := range r.Commands() {
		if !cmd.Rule.Enabled {
			continue
		}
		reports = append(reports, r.Run(cmd.Rule))
	}
	return reports
}
