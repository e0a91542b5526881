package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// shortIDLen is how much of a rule ID the terminal tables show
const shortIDLen = 8

// TerminalRenderer writes styled output with lipgloss
type TerminalRenderer struct {
	output io.Writer
	theme  *Theme
}

// NewTerminalRenderer creates a terminal renderer whose color profile is
// detected from output
func NewTerminalRenderer(output io.Writer) *TerminalRenderer {
	return &TerminalRenderer{
		output: output,
		theme:  DefaultTheme(lipgloss.NewRenderer(output)),
	}
}

// RenderReports renders each report's summary with its moves indented
// below it
func (r *TerminalRenderer) RenderReports(reports []*types.RunReport) error {
	var b strings.Builder
	for _, report := range reports {
		b.WriteString(r.reportHeadline(report))
		b.WriteByte('\n')
		for _, o := range report.Outcomes {
			switch o.Status {
			case types.MoveStatusMoved:
				fmt.Fprintf(&b, "  %s %s %s %s\n",
					r.theme.Render("Success", "✓"),
					r.theme.Render("Path", o.Source),
					r.theme.Render("Muted", "→"),
					r.theme.Render("Path", o.Destination))
			case types.MoveStatusFailed:
				fmt.Fprintf(&b, "  %s %s %s\n",
					r.theme.Render("Error", "✗"),
					r.theme.Render("Path", o.Source),
					r.theme.Render("Muted", errors.GetErrorMessage(o.Err)))
			}
		}
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *TerminalRenderer) reportHeadline(report *types.RunReport) string {
	summary := Summary(report)
	switch {
	case errors.IsErrorCode(report.Err, errors.ErrRuleDisabled):
		return r.theme.Render("Muted", "- "+summary)
	case report.Err != nil:
		return r.theme.Render("Error", "✗ "+summary)
	case len(report.Failed()) > 0:
		return r.theme.Render("Warning", "! "+summary)
	default:
		return r.theme.Render("Success", "✓ "+summary)
	}
}

// RenderRules renders the rules as a table
func (r *TerminalRenderer) RenderRules(rules []types.MoveRule) error {
	if len(rules) == 0 {
		return r.RenderMessage("No rules configured")
	}

	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, []string{
			shortID(rule.ID),
			rule.Name,
			displayPath(rule.SourcePath),
			rule.FilePattern,
			displayPath(rule.TargetPath),
			EnabledLabel(rule.Enabled),
		})
	}

	t := r.newTable("ID", "Name", "Source", "Pattern", "Target", "Status").Rows(rows...)
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		cell := r.theme.Style("Cell")
		switch {
		case row == table.HeaderRow:
			return cell.Inherit(r.theme.Style("Header"))
		case col == 0:
			return cell.Inherit(r.theme.Style("Muted"))
		case col == 5 && !rules[row].Enabled:
			return cell.Inherit(r.theme.Style("Muted"))
		case col == 5:
			return cell.Inherit(r.theme.Style("Success"))
		}
		return cell
	})

	_, err := fmt.Fprintln(r.output, t.String())
	return err
}

// RenderRule renders the rule name as a header above its YAML
func (r *TerminalRenderer) RenderRule(rule types.MoveRule) error {
	data, err := yaml.Marshal(rule)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode rule")
	}
	_, err = fmt.Fprintf(r.output, "%s\n%s", r.theme.Render("Rule", rule.DisplayName()), data)
	return err
}

// RenderHistory renders the invocations as a table
func (r *TerminalRenderer) RenderHistory(history []journal.Invocation) error {
	if len(history) == 0 {
		return r.RenderMessage("No invocations recorded")
	}

	rows := make([][]string, 0, len(history))
	for _, inv := range history {
		rows = append(rows, []string{
			inv.StartedAt.Local().Format(timeLayout),
			inv.RuleName,
			HistorySummary(inv),
			inv.Duration.Round(time.Millisecond).String(),
		})
	}

	t := r.newTable("Started", "Rule", "Result", "Took").Rows(rows...)
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		cell := r.theme.Style("Cell")
		switch {
		case row == table.HeaderRow:
			return cell.Inherit(r.theme.Style("Header"))
		case col == 2 && history[row].ErrorCode != "":
			return cell.Inherit(r.theme.Style("Error"))
		case col == 2 && history[row].Failed() > 0:
			return cell.Inherit(r.theme.Style("Warning"))
		case col == 0 || col == 3:
			return cell.Inherit(r.theme.Style("Muted"))
		}
		return cell
	})

	_, err := fmt.Fprintln(r.output, t.String())
	return err
}

// RenderError renders the error message in the error style
func (r *TerminalRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, r.theme.Render("Error", "Error: "+errors.GetErrorMessage(err)))
	return werr
}

// RenderMessage renders msg unstyled
func (r *TerminalRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func (r *TerminalRenderer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.theme.Style("Border")).
		Headers(headers...)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
