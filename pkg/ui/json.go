package ui

import (
	"encoding/json"
	"io"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/journal"
	"github.com/arthur-debert/tidyvault/pkg/types"
)

// JSONRenderer writes indented JSON for machine consumption
type JSONRenderer struct {
	encoder *json.Encoder
}

// NewJSONRenderer creates a JSON renderer
func NewJSONRenderer(output io.Writer) *JSONRenderer {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return &JSONRenderer{encoder: encoder}
}

type outcomeJSON struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type reportJSON struct {
	InvocationID string        `json:"invocation_id"`
	RuleID       string        `json:"rule_id"`
	RuleName     string        `json:"rule_name"`
	Reached      string        `json:"reached"`
	Completed    bool          `json:"completed"`
	ErrorCode    string        `json:"error_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	Matched      int           `json:"matched"`
	Outcomes     []outcomeJSON `json:"outcomes"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMS   int64         `json:"duration_ms"`
}

// RenderReports encodes the reports as an array
func (r *JSONRenderer) RenderReports(reports []*types.RunReport) error {
	out := make([]reportJSON, 0, len(reports))
	for _, report := range reports {
		rj := reportJSON{
			InvocationID: report.InvocationID,
			RuleID:       report.RuleID,
			RuleName:     report.RuleName,
			Reached:      string(report.Reached),
			Completed:    report.Completed(),
			Matched:      report.Matched,
			Outcomes:     make([]outcomeJSON, 0, len(report.Outcomes)),
			StartedAt:    report.StartedAt,
			DurationMS:   report.Duration.Milliseconds(),
		}
		if report.Err != nil {
			rj.ErrorCode = string(errors.GetErrorCode(report.Err))
			rj.Error = errors.GetErrorMessage(report.Err)
		}
		for _, o := range report.Outcomes {
			oj := outcomeJSON{Source: o.Source, Destination: o.Destination, Status: string(o.Status)}
			if o.Err != nil {
				oj.Error = o.Err.Error()
			}
			rj.Outcomes = append(rj.Outcomes, oj)
		}
		out = append(out, rj)
	}
	return r.encoder.Encode(out)
}

// RenderRules encodes the rules as an array
func (r *JSONRenderer) RenderRules(rules []types.MoveRule) error {
	if rules == nil {
		rules = []types.MoveRule{}
	}
	return r.encoder.Encode(rules)
}

// RenderRule encodes a single rule
func (r *JSONRenderer) RenderRule(rule types.MoveRule) error {
	return r.encoder.Encode(rule)
}

// RenderHistory encodes the invocations as an array
func (r *JSONRenderer) RenderHistory(history []journal.Invocation) error {
	if history == nil {
		history = []journal.Invocation{}
	}
	return r.encoder.Encode(history)
}

// RenderError encodes the error with its code
func (r *JSONRenderer) RenderError(err error) error {
	return r.encoder.Encode(map[string]string{
		"error": errors.GetErrorMessage(err),
		"code":  string(errors.GetErrorCode(err)),
	})
}

// RenderMessage encodes a simple message
func (r *JSONRenderer) RenderMessage(msg string) error {
	return r.encoder.Encode(map[string]string{"message": msg})
}
