package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"gopkg.in/yaml.v3"
)

// TextRenderer writes plain text without colors or styling
type TextRenderer struct {
	output io.Writer
}

// NewTextRenderer creates a plain text renderer
func NewTextRenderer(output io.Writer) *TextRenderer {
	return &TextRenderer{output: output}
}

// RenderReports prints a summary line per report followed by its moves
func (r *TextRenderer) RenderReports(reports []*types.RunReport) error {
	for _, report := range reports {
		if _, err := fmt.Fprintln(r.output, Summary(report)); err != nil {
			return err
		}
		for _, o := range report.Outcomes {
			var err error
			switch o.Status {
			case types.MoveStatusMoved:
				_, err = fmt.Fprintf(r.output, "  moved  %s -> %s\n", o.Source, o.Destination)
			case types.MoveStatusFailed:
				_, err = fmt.Fprintf(r.output, "  failed %s: %s\n", o.Source, errors.GetErrorMessage(o.Err))
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderRules prints one tab-aligned row per rule
func (r *TextRenderer) RenderRules(rules []types.MoveRule) error {
	if len(rules) == 0 {
		return r.RenderMessage("No rules configured")
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tPATTERN\tTARGET\tSTATUS")
	for _, rule := range rules {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rule.ID, rule.Name, displayPath(rule.SourcePath), rule.FilePattern,
			displayPath(rule.TargetPath), EnabledLabel(rule.Enabled))
	}
	return tw.Flush()
}

// RenderRule prints the rule as YAML
func (r *TextRenderer) RenderRule(rule types.MoveRule) error {
	data, err := yaml.Marshal(rule)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode rule")
	}
	_, err = r.output.Write(data)
	return err
}

// RenderHistory prints one line per invocation
func (r *TextRenderer) RenderHistory(history []journal.Invocation) error {
	if len(history) == 0 {
		return r.RenderMessage("No invocations recorded")
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	for _, inv := range history {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
			inv.StartedAt.Local().Format(timeLayout), inv.RuleName, HistorySummary(inv))
	}
	return tw.Flush()
}

// RenderError prints the error message
func (r *TextRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "Error: %s\n", err)
	return werr
}

// RenderMessage prints msg on its own line
func (r *TextRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

// displayPath shows the vault root as "/"
func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
