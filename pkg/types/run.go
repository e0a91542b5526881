package types

import "time"

// MatchSet holds the files selected by a rule during one invocation
type MatchSet []Entry

// Paths returns the vault paths of the match set
func (m MatchSet) Paths() []string {
	paths := make([]string, len(m))
	for i, e := range m {
		paths[i] = e.Path
	}
	return paths
}

// MoveStatus is the result of a single file move
type MoveStatus string

const (
	MoveStatusMoved  MoveStatus = "moved"
	MoveStatusFailed MoveStatus = "failed"

	// MoveStatusInPlace marks a match that already sits directly in the
	// target folder. Nothing is renamed.
	MoveStatusInPlace MoveStatus = "in_place"
)

// MoveOutcome records what happened to one matched file
type MoveOutcome struct {
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Status      MoveStatus `json:"status"`
	Err         error      `json:"-"`
}

// Succeeded reports whether the file was moved
func (o MoveOutcome) Succeeded() bool {
	return o.Status == MoveStatusMoved
}

// RunState is a rule runner state
type RunState string

const (
	StateIdle       RunState = "idle"
	StateValidating RunState = "validating"
	StateMatching   RunState = "matching"
	StateMoving     RunState = "moving"
)

// InvocationToken identifies one in-flight rule invocation
type InvocationToken struct {
	ID         string
	RuleID     string
	RuleName   string
	SourcePath string
	TargetPath string
	StartedAt  time.Time
}

// RunReport is the structured result of one rule invocation
type RunReport struct {
	InvocationID string        `json:"invocation_id"`
	RuleID       string        `json:"rule_id"`
	RuleName     string        `json:"rule_name"`
	Reached      RunState      `json:"reached"`
	Err          error         `json:"-"`
	Matched      int           `json:"matched"`
	Outcomes     []MoveOutcome `json:"outcomes"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// Moved returns the successful outcomes
func (r *RunReport) Moved() []MoveOutcome {
	var out []MoveOutcome
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the failed outcomes
func (r *RunReport) Failed() []MoveOutcome {
	return r.withStatus(MoveStatusFailed)
}

// InPlace returns the matches that were already in the target folder
func (r *RunReport) InPlace() []MoveOutcome {
	return r.withStatus(MoveStatusInPlace)
}

func (r *RunReport) withStatus(status MoveStatus) []MoveOutcome {
	var out []MoveOutcome
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// Completed reports whether the invocation got past validation and pattern
// compilation. Individual move failures do not affect it.
func (r *RunReport) Completed() bool {
	return r.Err == nil && r.Reached == StateMoving
}
