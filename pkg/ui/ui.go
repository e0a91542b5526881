// Package ui renders tidyvault's command output as styled terminal text,
// plain text or JSON.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/types"
)

// Renderer is the common interface for all output renderers
type Renderer interface {
	// RenderReports renders the results of rule invocations
	RenderReports(reports []*types.RunReport) error

	// RenderRules renders the configured rules in list order
	RenderRules(rules []types.MoveRule) error

	// RenderRule renders a single rule in full
	RenderRule(rule types.MoveRule) error

	// RenderHistory renders journaled invocations, newest first
	RenderHistory(history []journal.Invocation) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto inspects output
// when it is a file and falls back to plain text otherwise.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return NewTerminalRenderer(output), nil
	case FormatText:
		return NewTextRenderer(output), nil
	case FormatJSON:
		return NewJSONRenderer(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}

// Summary is the one-line description of an invocation shared by the text
// and terminal renderers
func Summary(report *types.RunReport) string {
	name := reportName(report)
	switch {
	case report.Err != nil:
		return fmt.Sprintf("%s: %s", name, errors.GetErrorMessage(report.Err))
	case report.Matched == 0:
		return fmt.Sprintf("%s: no matching files", name)
	}

	line := fmt.Sprintf("%s: moved %d of %d %s", name, len(report.Moved()), report.Matched, plural(report.Matched, "file"))
	if inPlace := len(report.InPlace()); inPlace > 0 {
		line += fmt.Sprintf(", %d already in target", inPlace)
	}
	if failed := len(report.Failed()); failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	return line
}

// HistorySummary describes a journaled invocation's result
func HistorySummary(inv journal.Invocation) string {
	if inv.ErrorCode != "" {
		return fmt.Sprintf("%s: %s", inv.ErrorCode, inv.ErrorMessage)
	}
	if inv.Matched == 0 {
		return "no matching files"
	}
	line := fmt.Sprintf("moved %d of %d", inv.Moved(), inv.Matched)
	if inPlace := inv.InPlace(); inPlace > 0 {
		line += fmt.Sprintf(", %d already in target", inPlace)
	}
	if failed := inv.Failed(); failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	return line
}

// EnabledLabel renders the rule's enabled flag
func EnabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func reportName(report *types.RunReport) string {
	if report.RuleName != "" {
		return report.RuleName
	}
	return report.RuleID
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// timeLayout is used for history timestamps in text and terminal output
const timeLayout = "2006-01-02 15:04:05"
