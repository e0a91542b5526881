//go:build windows

package cli

import "os"

// reloadSignals never fires; Windows has no SIGHUP
func reloadSignals() (<-chan os.Signal, func()) {
	return nil, func() {}
}
