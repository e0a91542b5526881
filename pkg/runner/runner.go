package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/mover"
	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/arthur-debert/tidyvault/pkg/pattern"
	"github.com/arthur-debert/tidyvault/pkg/registry"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/walker"
	"github.com/rs/zerolog"
)

// Metrics receives invocation and move counts. *metrics.Metrics satisfies it.
type Metrics interface {
	mover.MoveObserver
	InvocationStarted()
	InvocationFinished(report *types.RunReport)
}

// ReportRecorder persists finished reports. *journal.Journal satisfies it.
type ReportRecorder interface {
	Record(report *types.RunReport) error
}

// Runner executes rules against a tree
type Runner struct {
	tree          types.Tree
	tracker       *Tracker
	notifier      notify.Notifier
	patternOpts   pattern.Options
	maxConcurrent int
	metrics       Metrics
	recorders     []ReportRecorder
	logger        zerolog.Logger

	mu                sync.RWMutex
	showNotifications bool
	commands          registry.Registry[Command]
}

// Option configures a Runner
type Option func(*Runner)

// WithNotifier sets where user-visible notices go
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithPatternOptions selects the pattern engine and match timeout
func WithPatternOptions(opts pattern.Options) Option {
	return func(r *Runner) {
		r.patternOpts = opts
	}
}

// WithMaxConcurrent bounds moves in flight per invocation; 0 means unlimited
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) {
		r.maxConcurrent = n
	}
}

// WithMetrics reports invocations and moves to m
func WithMetrics(m Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithRecorder adds a recorder for finished reports
func WithRecorder(rec ReportRecorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorders = append(r.recorders, rec)
		}
	}
}

// WithTracker shares a tracker between runners
func WithTracker(t *Tracker) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracker = t
		}
	}
}

// WithShowNotifications sets the initial notification flag. Reconfigure
// overrides it from settings.
func WithShowNotifications(show bool) Option {
	return func(r *Runner) {
		r.showNotifications = show
	}
}

// New creates a runner over tree
func New(tree types.Tree, opts ...Option) *Runner {
	r := &Runner{
		tree:              tree,
		tracker:           NewTracker(),
		notifier:          notify.Discard,
		patternOpts:       pattern.DefaultOptions(),
		logger:            logging.GetLogger("runner"),
		showNotifications: true,
		commands:          registry.New[Command](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracker returns the invocation tracker
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// ShowNotifications reports whether notices are currently enabled
func (r *Runner) ShowNotifications() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.showNotifications
}

// RunRule executes rule. Its effects are notices, log lines and tree
// mutations; nothing is returned.
func (r *Runner) RunRule(rule types.MoveRule) {
	_ = r.Run(rule)
}

// Run executes rule and returns the report of the invocation
func (r *Runner) Run(rule types.MoveRule) *types.RunReport {
	token := r.tracker.Begin(rule)
	defer r.tracker.End(token)

	show := r.ShowNotifications()
	report := &types.RunReport{
		InvocationID: token.ID,
		RuleID:       rule.ID,
		RuleName:     rule.DisplayName(),
		Reached:      types.StateIdle,
		StartedAt:    token.StartedAt,
	}

	logger := r.logger.With().
		Str("invocation", token.ID).
		Str("rule", rule.ID).
		Str("name", rule.Name).
		Logger()
	done := logging.LogOperationStart(logger, "run-rule")
	defer done()

	if r.metrics != nil {
		r.metrics.InvocationStarted()
	}

	r.execute(rule, report, logger, show)

	report.Duration = time.Since(report.StartedAt)

	if report.Err != nil {
		r.reportFailure(rule, report, logger, show)
	} else {
		logger.Info().
			Int("matched", report.Matched).
			Int("moved", len(report.Moved())).
			Int("failed", len(report.Failed())).
			Dur("duration", report.Duration).
			Msg("Rule finished")
	}

	if r.metrics != nil {
		r.metrics.InvocationFinished(report)
	}
	for _, rec := range r.recorders {
		if err := rec.Record(report); err != nil {
			logger.Warn().Err(err).Msg("Failed to record report")
		}
	}

	return report
}

// execute walks the state machine. It stops at the first fatal error, which
// it stores in report.Err.
func (r *Runner) execute(rule types.MoveRule, report *types.RunReport, logger zerolog.Logger, show bool) {
	report.Reached = types.StateValidating

	if !rule.Enabled {
		report.Err = errors.New(errors.ErrRuleDisabled, "rule disabled").
			WithDetail("rule", rule.ID)
		return
	}

	// Blank paths clean to the vault root, which is never a rule folder
	if types.CleanPath(rule.SourcePath) == "" {
		report.Err = errors.New(errors.ErrSourceNotFound, "source folder not found: no source folder set").
			WithDetail("rule", rule.ID)
		return
	}
	if types.CleanPath(rule.TargetPath) == "" {
		report.Err = errors.New(errors.ErrTargetCreate, "failed to create target folder: no target folder set").
			WithDetail("rule", rule.ID)
		return
	}

	sourcePath := types.CleanPath(rule.SourcePath)
	source, ok := r.tree.Resolve(sourcePath)
	if !ok || !source.IsDir() {
		report.Err = errors.Newf(errors.ErrSourceNotFound, "source folder not found: %s", sourcePath).
			WithDetail("path", sourcePath)
		return
	}
	if _, err := r.tree.ListChildren(source); err != nil {
		report.Err = errors.Wrapf(err, errors.ErrSourceNotFound, "source folder not found: %s", sourcePath).
			WithDetail("path", sourcePath)
		return
	}

	targetPath := types.CleanPath(rule.TargetPath)
	if err := r.ensureTarget(targetPath, logger); err != nil {
		report.Err = err
		return
	}

	report.Reached = types.StateMatching

	matcher, err := pattern.Compile(rule.FilePattern, r.patternOpts)
	if err != nil {
		report.Err = err
		return
	}

	result, err := walker.Walk(r.tree, source, matcher)
	if err != nil {
		report.Err = errors.Wrapf(err, errors.ErrSourceNotFound, "source folder not found: %s", sourcePath).
			WithDetail("path", sourcePath)
		return
	}
	report.Matched = len(result.Matches)
	logger.Debug().
		Int("matched", report.Matched).
		Int("files", result.FilesVisited).
		Strs("skipped", result.Skipped).
		Msg("Match set computed")

	report.Reached = types.StateMoving

	exec := mover.New(r.tree,
		mover.WithNotifier(r.notifier),
		mover.WithMaxConcurrent(r.maxConcurrent),
		mover.WithObserver(r.moveObserver()),
	)
	report.Outcomes = exec.MoveAll(result.Matches, mover.Batch{
		TargetPath:   targetPath,
		RuleID:       rule.ID,
		InvocationID: report.InvocationID,
		Notify:       show,
	})
}

func (r *Runner) moveObserver() mover.MoveObserver {
	if r.metrics == nil {
		return nil
	}
	return r.metrics
}

// ensureTarget makes sure targetPath is a folder, creating it if absent
func (r *Runner) ensureTarget(targetPath string, logger zerolog.Logger) error {
	if target, ok := r.tree.Resolve(targetPath); ok {
		if target.IsDir() {
			return nil
		}
		return errors.Newf(errors.ErrTargetCreate, "failed to create target folder: %s is a file", targetPath).
			WithDetail("path", targetPath)
	}

	if err := r.tree.CreateDirectory(targetPath); err != nil {
		return errors.Wrapf(err, errors.ErrTargetCreate, "failed to create target folder: %s", targetPath).
			WithDetail("path", targetPath)
	}
	logger.Info().Str("target", targetPath).Msg("Created target folder")
	return nil
}

// reportFailure surfaces a fatal invocation error exactly once
func (r *Runner) reportFailure(rule types.MoveRule, report *types.RunReport, logger zerolog.Logger, show bool) {
	level := notify.LevelError
	if errors.IsErrorCode(report.Err, errors.ErrRuleDisabled) {
		level = notify.LevelInfo
		logger.Info().Msg("Rule disabled, nothing to do")
	} else {
		logger.Error().
			Err(report.Err).
			Str("code", string(errors.GetErrorCode(report.Err))).
			Str("reached", string(report.Reached)).
			Msg("Rule invocation aborted")
	}

	if !show {
		return
	}
	r.notifier.Notify(notify.Notice{
		Level:        level,
		Message:      fmt.Sprintf("%s: %s", rule.DisplayName(), errors.GetErrorMessage(report.Err)),
		InvocationID: report.InvocationID,
		RuleID:       rule.ID,
		Time:         time.Now(),
	})
}
