package cli

import (
	"fmt"
	"io"

	"github.com/arthur-debert/tidyvault/pkg/config"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: MsgConfigPathShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			configFile := opts.configFile
			if configFile == "" {
				configFile = config.DefaultConfigFile()
			}
			return writePairs(cmd.OutOrStdout(), [][2]string{
				{"config", configFile},
				{"settings", a.cfg.Settings.Path},
				{"journal", a.cfg.Journal.Path},
				{"log", logging.LogFilePath()},
			})
		},
	})

	var defaults bool
	show := &cobra.Command{
		Use:   "show",
		Short: MsgConfigShowShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := io.WriteString(cmd.OutOrStdout(), config.DefaultConfigContent())
				return err
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			cfg := a.cfg
			return writePairs(cmd.OutOrStdout(), [][2]string{
				{"vault.root", cfg.Vault.Root},
				{"settings.path", cfg.Settings.Path},
				{"pattern.engine", cfg.Pattern.Engine},
				{"pattern.match_timeout", cfg.Pattern.MatchTimeout.String()},
				{"moves.max_concurrent", fmt.Sprint(cfg.Moves.MaxConcurrent)},
				{"journal.enabled", fmt.Sprint(cfg.Journal.Enabled)},
				{"journal.path", cfg.Journal.Path},
				{"output.format", cfg.Output.Format},
			})
		},
	}
	show.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in defaults instead")
	cmd.AddCommand(show)

	return cmd
}

func writePairs(w io.Writer, pairs [][2]string) error {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%-*s = %s\n", width, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}
