package cli

import (
	"fmt"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/pattern"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/spf13/cobra"
)

func newRulesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   MsgRulesShort,
		GroupID: "core",
	}

	cmd.AddCommand(newRulesListCmd(opts))
	cmd.AddCommand(newRulesShowCmd(opts))
	cmd.AddCommand(newRulesAddCmd(opts))
	cmd.AddCommand(newRulesRemoveCmd(opts))
	cmd.AddCommand(newRulesToggleCmd(opts, "enable", MsgRulesEnableShort, true))
	cmd.AddCommand(newRulesToggleCmd(opts, "disable", MsgRulesDisableShort, false))
	cmd.AddCommand(newRulesNotifyCmd(opts))
	return cmd
}

func newRulesListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgRulesListShort,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			renderer, err := a.renderer()
			if err != nil {
				return err
			}
			settings, err := a.store.Load()
			if err != nil {
				return err
			}
			return renderer.RenderRules(settings.Rules)
		},
	}
}

func newRulesShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "show <rule-id-or-name>",
		Short:             MsgRulesShowShort,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: ruleNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			renderer, err := a.renderer()
			if err != nil {
				return err
			}
			settings, err := a.store.Load()
			if err != nil {
				return err
			}
			rule, err := findRule(settings, args[0])
			if err != nil {
				return err
			}
			return renderer.RenderRule(rule)
		},
	}
}

func newRulesAddCmd(opts *globalOptions) *cobra.Command {
	var (
		rule     types.MoveRule
		disabled bool
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   MsgRulesAddShort,
		Example: MsgRulesAddExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"source", "pattern", "target"} {
				if !cmd.Flags().Changed(name) {
					return errors.Newf(errors.ErrInvalidInput, MsgErrMissingFlag, name)
				}
			}
			for name, p := range map[string]string{"source": rule.SourcePath, "target": rule.TargetPath} {
				if types.CleanPath(p) == "" {
					return errors.Newf(errors.ErrInvalidInput, MsgErrRootFolder, name)
				}
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			// Reject patterns the configured engine cannot compile
			if err := pattern.Validate(rule.FilePattern, a.cfg.PatternOptions()); err != nil {
				return err
			}

			rule.Enabled = !disabled
			added, err := a.store.AddRule(rule)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), MsgRuleAdded, added.DisplayName(), added.ID)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&rule.ID, "id", "", "Rule ID (default: a new UUID)")
	flags.StringVar(&rule.Name, "name", "", "Display name")
	flags.StringVar(&rule.SourcePath, "source", "", "Source folder, relative to the vault root")
	flags.StringVar(&rule.FilePattern, "pattern", "", "Regular expression tested against file names")
	flags.StringVar(&rule.TargetPath, "target", "", "Target folder, relative to the vault root")
	flags.BoolVar(&disabled, "disabled", false, "Add the rule disabled")
	return cmd
}

func newRulesRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "remove <rule-id-or-name>",
		Aliases:           []string{"rm"},
		Short:             MsgRulesRemoveShort,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: ruleNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			removed, err := a.store.RemoveRule(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), MsgRuleRemoved, removed.DisplayName(), removed.ID)
			return err
		},
	}
}

func newRulesToggleCmd(opts *globalOptions, use, short string, enabled bool) *cobra.Command {
	msg := MsgRuleDisabled
	if enabled {
		msg = MsgRuleEnabled
	}

	return &cobra.Command{
		Use:               use + " <rule-id-or-name>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: ruleNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			rule, err := a.store.SetEnabled(args[0], enabled)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), msg, rule.DisplayName())
			return err
		},
	}
}

func newRulesNotifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "notify <on|off>",
		Short:     MsgNotifyShort,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			show := args[0] == "on"
			if err := a.store.SetShowNotifications(show); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), MsgNotifySet, args[0])
			return err
		},
	}
}
