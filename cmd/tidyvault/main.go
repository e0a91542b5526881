package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/tidyvault/internal/cli"
	"github.com/pterm/pterm"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, pterm.Error.Sprint(err.Error()))
		os.Exit(1)
	}
}
