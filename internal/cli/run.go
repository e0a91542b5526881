package cli

import (
	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/runner"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:               "run [rule-id-or-name...]",
		Short:             MsgRunShort,
		Long:              MsgRunLong,
		Example:           MsgRunExample,
		GroupID:           "core",
		ValidArgsFunction: ruleNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New(errors.ErrInvalidInput, MsgErrNoRulesGiven)
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			renderer, err := a.renderer()
			if err != nil {
				return err
			}

			settings, err := a.store.Load()
			if err != nil {
				return err
			}

			r, err := a.newRunner(settings)
			if err != nil {
				return err
			}

			reports, err := runRules(r, settings, args, all)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				return renderer.RenderMessage(MsgNoRulesToRun)
			}

			if err := renderer.RenderReports(reports); err != nil {
				return err
			}
			return runError(reports)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Run every enabled rule")
	return cmd
}

// runRules runs the named rules in argument order, or every enabled rule.
// Unknown names fail before anything runs.
func runRules(r *runner.Runner, settings types.Settings, names []string, all bool) ([]*types.RunReport, error) {
	logger := logging.GetLogger("cli.run")

	if all {
		return r.RunAll(), nil
	}

	commands := make([]string, 0, len(names))
	for _, name := range names {
		rule, err := findRule(settings, name)
		if err != nil {
			return nil, err
		}
		commands = append(commands, runner.CommandID(rule.ID))
	}

	reports := make([]*types.RunReport, 0, len(commands))
	for _, id := range commands {
		logger.Debug().Str("command", id).Msg("Running command")
		report, err := r.RunCommand(id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// runError turns failed invocations and failed moves into the command's
// error so the exit status reflects them. Disabled rules are not failures.
func runError(reports []*types.RunReport) error {
	failedRuns, failedMoves := 0, 0
	for _, report := range reports {
		if report.Err != nil && !errors.IsErrorCode(report.Err, errors.ErrRuleDisabled) {
			failedRuns++
		}
		failedMoves += len(report.Failed())
	}

	switch {
	case failedRuns == 1 && len(reports) == 1:
		return reports[0].Err
	case failedRuns > 0:
		return errors.Newf(errors.GetErrorCode(firstFailure(reports)), MsgErrRunFailed, failedRuns, len(reports))
	case failedMoves > 0:
		return errors.Newf(errors.ErrMoveFailed, MsgErrMovesFailed, failedMoves)
	}
	return nil
}

func firstFailure(reports []*types.RunReport) error {
	for _, report := range reports {
		if report.Err != nil && !errors.IsErrorCode(report.Err, errors.ErrRuleDisabled) {
			return report.Err
		}
	}
	return nil
}

// ruleNamesCompletion completes rule names from the settings file
func ruleNamesCompletion(opts *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		a, err := newApp(cmd, opts)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		settings, err := a.store.Load()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		names := make([]string, 0, len(settings.Rules))
		for _, rule := range settings.Rules {
			names = append(names, rule.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
