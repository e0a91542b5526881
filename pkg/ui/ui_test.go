package ui_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []*types.RunReport {
	return []*types.RunReport{
		{
			InvocationID: "inv-1",
			RuleID:       "r1",
			RuleName:     "Inbox to Notes",
			Reached:      types.StateMoving,
			Matched:      2,
			Outcomes: []types.MoveOutcome{
				{Source: "Inbox/a.md", Destination: "Notes/a.md", Status: types.MoveStatusMoved},
				{
					Source:      "Inbox/b.md",
					Destination: "Notes/b.md",
					Status:      types.MoveStatusFailed,
					Err:         errors.New(errors.ErrMoveFailed, "failed to move Inbox/b.md"),
				},
			},
			Duration: 3 * time.Millisecond,
		},
		{
			InvocationID: "inv-2",
			RuleID:       "r2",
			RuleName:     "Archive",
			Reached:      types.StateValidating,
			Err:          errors.New(errors.ErrSourceNotFound, "source folder not found: Old"),
		},
	}
}

func sampleRules() []types.MoveRule {
	return []types.MoveRule{
		{ID: "0123456789abcdef", Name: "Inbox to Notes", SourcePath: "Inbox", FilePattern: `\.md$`, TargetPath: "Notes", Enabled: true},
		{ID: "r2", Name: "Root sweep", SourcePath: "", FilePattern: "^tmp", TargetPath: "Trash", Enabled: false},
	}
}

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer

	for _, f := range []ui.Format{ui.FormatAuto, ui.FormatTerminal, ui.FormatText, ui.FormatJSON} {
		r, err := ui.NewRenderer(f, &buf)
		require.NoError(t, err, f.String())
		assert.NotNil(t, r)
	}

	auto, err := ui.NewRenderer(ui.FormatAuto, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ui.TextRenderer{}, auto)

	_, err = ui.NewRenderer(ui.Format(999), &buf)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSummary(t *testing.T) {
	reports := sampleReports()
	assert.Equal(t, "Inbox to Notes: moved 1 of 2 files, 1 failed", ui.Summary(reports[0]))
	assert.Equal(t, "Archive: source folder not found: Old", ui.Summary(reports[1]))

	empty := &types.RunReport{RuleID: "r3", Reached: types.StateMoving}
	assert.Equal(t, "r3: no matching files", ui.Summary(empty))

	one := &types.RunReport{RuleName: "One", Reached: types.StateMoving, Matched: 1,
		Outcomes: []types.MoveOutcome{{Status: types.MoveStatusMoved}}}
	assert.Equal(t, "One: moved 1 of 1 file", ui.Summary(one))

	settled := &types.RunReport{RuleName: "PDFs", Reached: types.StateMoving, Matched: 2,
		Outcomes: []types.MoveOutcome{{Status: types.MoveStatusInPlace}, {Status: types.MoveStatusInPlace}}}
	assert.Equal(t, "PDFs: moved 0 of 2 files, 2 already in target", ui.Summary(settled))

	var buf bytes.Buffer
	require.NoError(t, ui.NewTextRenderer(&buf).RenderReports([]*types.RunReport{settled}))
	assert.Equal(t, "PDFs: moved 0 of 2 files, 2 already in target\n", buf.String())
}

func TestHistorySummary(t *testing.T) {
	assert.Equal(t, "INVALID_PATTERN: invalid pattern",
		ui.HistorySummary(journal.Invocation{ErrorCode: "INVALID_PATTERN", ErrorMessage: "invalid pattern"}))
	assert.Equal(t, "no matching files", ui.HistorySummary(journal.Invocation{}))
	assert.Equal(t, "moved 1 of 2, 1 failed", ui.HistorySummary(journal.Invocation{
		Matched: 2,
		Moves:   []journal.Move{{Status: "moved"}, {Status: "failed"}},
	}))
	assert.Equal(t, "moved 1 of 2, 1 already in target", ui.HistorySummary(journal.Invocation{
		Matched: 2,
		Moves:   []journal.Move{{Status: "moved"}, {Status: "in_place"}},
	}))
}

func TestTextRenderer(t *testing.T) {
	t.Run("reports", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTextRenderer(&buf).RenderReports(sampleReports()))

		out := buf.String()
		assert.Contains(t, out, "Inbox to Notes: moved 1 of 2 files, 1 failed\n")
		assert.Contains(t, out, "  moved  Inbox/a.md -> Notes/a.md\n")
		assert.Contains(t, out, "  failed Inbox/b.md: failed to move Inbox/b.md\n")
		assert.Contains(t, out, "Archive: source folder not found: Old\n")
	})

	t.Run("rules", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTextRenderer(&buf).RenderRules(sampleRules()))

		out := buf.String()
		assert.Contains(t, out, "0123456789abcdef")
		assert.Contains(t, out, "disabled")
		assert.Regexp(t, `Root sweep\s+/\s+\^tmp`, out)
	})

	t.Run("no rules", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTextRenderer(&buf).RenderRules(nil))
		assert.Equal(t, "No rules configured\n", buf.String())
	})

	t.Run("rule as yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTextRenderer(&buf).RenderRule(sampleRules()[0]))
		assert.Contains(t, buf.String(), "source_path: Inbox\n")
		assert.Contains(t, buf.String(), "enabled: true\n")
	})

	t.Run("history", func(t *testing.T) {
		var buf bytes.Buffer
		history := []journal.Invocation{{RuleName: "Archive", ErrorCode: "SOURCE_NOT_FOUND", ErrorMessage: "gone"}}
		require.NoError(t, ui.NewTextRenderer(&buf).RenderHistory(history))
		assert.Contains(t, buf.String(), "SOURCE_NOT_FOUND: gone")
	})
}

func TestJSONRenderer(t *testing.T) {
	t.Run("reports", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewJSONRenderer(&buf).RenderReports(sampleReports()))

		var decoded []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)

		assert.Equal(t, true, decoded[0]["completed"])
		outcomes := decoded[0]["outcomes"].([]interface{})
		require.Len(t, outcomes, 2)
		assert.Contains(t, outcomes[1].(map[string]interface{})["error"], "MOVE_FAILED")

		assert.Equal(t, false, decoded[1]["completed"])
		assert.Equal(t, "SOURCE_NOT_FOUND", decoded[1]["error_code"])
		assert.Equal(t, "source folder not found: Old", decoded[1]["error"])
	})

	t.Run("empty lists encode as arrays", func(t *testing.T) {
		var buf bytes.Buffer
		r := ui.NewJSONRenderer(&buf)
		require.NoError(t, r.RenderRules(nil))
		require.NoError(t, r.RenderHistory(nil))
		assert.Equal(t, "[]\n[]\n", buf.String())
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewJSONRenderer(&buf).RenderError(errors.New(errors.ErrRuleNotFound, "no rule named x")))

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "RULE_NOT_FOUND", decoded["code"])
		assert.Equal(t, "no rule named x", decoded["error"])
	})
}

func TestTerminalRenderer(t *testing.T) {
	t.Run("reports", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTerminalRenderer(&buf).RenderReports(sampleReports()))

		out := buf.String()
		assert.Contains(t, out, "Inbox to Notes: moved 1 of 2 files, 1 failed")
		assert.Contains(t, out, "Inbox/a.md")
		assert.Contains(t, out, "Notes/a.md")
		assert.Contains(t, out, "Archive: source folder not found: Old")
	})

	t.Run("rules table shortens ids", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ui.NewTerminalRenderer(&buf).RenderRules(sampleRules()))

		out := buf.String()
		assert.Contains(t, out, "01234567")
		assert.NotContains(t, out, "0123456789abcdef")
		assert.Contains(t, out, "Root sweep")
	})

	t.Run("history table", func(t *testing.T) {
		var buf bytes.Buffer
		history := []journal.Invocation{{RuleName: "Inbox to Notes", Matched: 1, Moves: []journal.Move{{Status: "moved"}}}}
		require.NoError(t, ui.NewTerminalRenderer(&buf).RenderHistory(history))
		assert.Contains(t, buf.String(), "moved 1 of 1")
	})
}

func TestLoadTheme(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})

	theme, err := ui.LoadTheme(r, []byte("styles:\n  Header:\n    bold: true\n"))
	require.NoError(t, err)
	assert.True(t, theme.Style("Header").GetBold())
	assert.False(t, theme.Style("Missing").GetBold())

	_, err = ui.LoadTheme(r, []byte("styles: [unterminated"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))

	assert.True(t, ui.DefaultTheme(r).Style("Header").GetBold())
}
