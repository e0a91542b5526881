package notify

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/rs/zerolog"
)

// Attributor maps a changed path to the invocation that touched it
type Attributor interface {
	Attribute(path string) (types.InvocationToken, bool)
}

// ChangeHook is called for every observed change
type ChangeHook func(event types.ChangeEvent, token types.InvocationToken, self bool)

// ObserverOptions selects which changes become notices. Every change is
// logged regardless.
type ObserverOptions struct {
	// SurfaceSelf re-surfaces changes made by a rule invocation
	SurfaceSelf bool
	// SurfaceExternal surfaces changes nobody in this process made
	SurfaceExternal bool
}

// DefaultObserverOptions surfaces self-triggered changes only
func DefaultObserverOptions() ObserverOptions {
	return ObserverOptions{SurfaceSelf: true}
}

// Observer watches a tree and separates changes made by rule invocations from
// changes made by anything else.
type Observer struct {
	attributor Attributor
	notifier   Notifier
	opts       ObserverOptions
	logger     zerolog.Logger

	mu    sync.Mutex
	hooks []ChangeHook

	unsubscribe func()

	self     atomic.Int64
	external atomic.Int64
}

// NewObserver subscribes to tree. Call Close to unsubscribe.
func NewObserver(tree types.Tree, attributor Attributor, notifier Notifier, opts ObserverOptions) *Observer {
	if notifier == nil {
		notifier = Discard
	}
	o := &Observer{
		attributor: attributor,
		notifier:   notifier,
		opts:       opts,
		logger:     logging.GetLogger("notify.observer"),
	}
	o.unsubscribe = tree.OnChange(o.Handle)
	return o
}

// AddHook registers a hook called after each change is classified
func (o *Observer) AddHook(hook ChangeHook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hooks = append(o.hooks, hook)
}

// Handle classifies one change event
func (o *Observer) Handle(event types.ChangeEvent) {
	token, self := o.attribute(event)

	if self {
		o.self.Add(1)
		o.logger.Debug().
			Str("invocation", token.ID).
			Str("rule", token.RuleID).
			Stringer("op", event.Op).
			Str("path", event.Path).
			Msg("Change made by rule invocation")
		if o.opts.SurfaceSelf {
			o.notifier.Notify(Notice{
				Level:        LevelInfo,
				Message:      fmt.Sprintf("%s: %s", token.RuleName, describe(event)),
				InvocationID: token.ID,
				RuleID:       token.RuleID,
				Time:         event.Time,
			})
		}
	} else {
		o.external.Add(1)
		o.logger.Debug().
			Stringer("op", event.Op).
			Str("path", event.Path).
			Str("old_path", event.OldPath).
			Msg("External change")
		if o.opts.SurfaceExternal {
			o.notifier.Notify(Notice{
				Level:   LevelInfo,
				Message: describe(event),
				Time:    event.Time,
			})
		}
	}

	o.mu.Lock()
	hooks := append([]ChangeHook(nil), o.hooks...)
	o.mu.Unlock()
	for _, hook := range hooks {
		hook(event, token, self)
	}
}

func (o *Observer) attribute(event types.ChangeEvent) (types.InvocationToken, bool) {
	if o.attributor == nil {
		return types.InvocationToken{}, false
	}
	if token, ok := o.attributor.Attribute(event.Path); ok {
		return token, true
	}
	if event.OldPath != "" {
		return o.attributor.Attribute(event.OldPath)
	}
	return types.InvocationToken{}, false
}

func describe(event types.ChangeEvent) string {
	if event.Op == types.ChangeRenamed && event.OldPath != "" {
		return fmt.Sprintf("Renamed %s to %s", event.OldPath, event.Path)
	}
	return fmt.Sprintf("%s %s", capitalize(event.Op.String()), event.Path)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// SelfTriggered returns the number of changes attributed to invocations
func (o *Observer) SelfTriggered() int64 {
	return o.self.Load()
}

// External returns the number of changes not attributed to any invocation
func (o *Observer) External() int64 {
	return o.external.Load()
}

// Close unsubscribes from the tree
func (o *Observer) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
}
