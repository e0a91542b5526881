// Package mover moves a rule's match set into its target folder.
//
// Every move is issued concurrently and the executor waits for all of them.
// A failed move is recorded in that file's outcome and never affects its
// siblings. There is no retry and no rollback.
package mover

import (
	"fmt"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MoveObserver is told about every outcome. *metrics.Metrics satisfies it.
type MoveObserver interface {
	ObserveMove(ruleID string, outcome types.MoveOutcome)
}

// Executor issues the moves of one batch
type Executor struct {
	tree          types.Tree
	notifier      notify.Notifier
	observer      MoveObserver
	maxConcurrent int
	logger        zerolog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithNotifier sets the notifier used for per-file notices
func WithNotifier(n notify.Notifier) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithObserver sets an observer for outcomes
func WithObserver(o MoveObserver) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithMaxConcurrent bounds the number of moves in flight; 0 means unlimited
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) {
		e.maxConcurrent = n
	}
}

// New creates an executor over tree
func New(tree types.Tree, opts ...Option) *Executor {
	e := &Executor{
		tree:     tree,
		notifier: notify.Discard,
		logger:   logging.GetLogger("mover"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Batch describes where a match set goes and who asked for it
type Batch struct {
	TargetPath   string
	RuleID       string
	InvocationID string

	// Notify enables user-visible notices for each outcome
	Notify bool
}

// Destination returns where a file ends up: directly inside the target
// folder, under its own base name.
func Destination(targetPath string, file types.Entry) string {
	return types.JoinPath(targetPath, file.Name())
}

// MoveAll moves every file in matches into batch.TargetPath. The returned
// outcomes are indexed like matches.
func (e *Executor) MoveAll(matches types.MatchSet, batch Batch) []types.MoveOutcome {
	outcomes := make([]types.MoveOutcome, len(matches))
	if len(matches) == 0 {
		return outcomes
	}

	logger := e.logger.With().
		Str("invocation", batch.InvocationID).
		Str("rule", batch.RuleID).
		Str("target", batch.TargetPath).
		Logger()

	var g errgroup.Group
	if e.maxConcurrent > 0 {
		g.SetLimit(e.maxConcurrent)
	}

	start := time.Now()
	for i, file := range matches {
		g.Go(func() error {
			outcomes[i] = e.moveOne(logger, file, batch)
			return nil
		})
	}
	// Per-file errors live in the outcomes; the group never fails
	_ = g.Wait()

	counts := make(map[types.MoveStatus]int, 3)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	logger.Info().
		Int("matched", len(matches)).
		Int("moved", counts[types.MoveStatusMoved]).
		Int("in_place", counts[types.MoveStatusInPlace]).
		Int("failed", counts[types.MoveStatusFailed]).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return outcomes
}

func (e *Executor) moveOne(logger zerolog.Logger, file types.Entry, batch Batch) types.MoveOutcome {
	outcome := types.MoveOutcome{
		Source:      file.Path,
		Destination: Destination(batch.TargetPath, file),
	}

	if outcome.Destination == types.CleanPath(file.Path) {
		outcome.Status = types.MoveStatusInPlace
		logger.Debug().Str("source", outcome.Source).Msg("Already in target")
	} else if err := e.tree.Rename(file, outcome.Destination); err != nil {
		outcome.Status = types.MoveStatusFailed
		outcome.Err = errors.Wrapf(err, errors.ErrMoveFailed, "failed to move %s", file.Path).
			WithDetail("source", outcome.Source).
			WithDetail("destination", outcome.Destination)

		logger.Error().
			Err(err).
			Str("source", outcome.Source).
			Str("destination", outcome.Destination).
			Msg("Move failed")
		if batch.Notify {
			e.notifier.Notify(notify.Notice{
				Level:        notify.LevelError,
				Message:      fmt.Sprintf("Failed to move %s: %v", file.Path, err),
				InvocationID: batch.InvocationID,
				RuleID:       batch.RuleID,
				Time:         time.Now(),
			})
		}
	} else {
		outcome.Status = types.MoveStatusMoved

		logger.Debug().
			Str("source", outcome.Source).
			Str("destination", outcome.Destination).
			Msg("Moved")
		if batch.Notify {
			e.notifier.Notify(notify.Notice{
				Level:        notify.LevelSuccess,
				Message:      fmt.Sprintf("Moved %s to %s", file.Name(), batch.TargetPath),
				InvocationID: batch.InvocationID,
				RuleID:       batch.RuleID,
				Time:         time.Now(),
			})
		}
	}

	if e.observer != nil {
		e.observer.ObserveMove(batch.RuleID, outcome)
	}
	return outcome
}
