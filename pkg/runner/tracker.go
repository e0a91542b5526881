package runner

import (
	"sort"
	"sync"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/google/uuid"
)

// Tracker keeps the tokens of every invocation in flight
type Tracker struct {
	mu     sync.Mutex
	active map[string]types.InvocationToken
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]types.InvocationToken)}
}

// Begin issues a token for a new invocation of rule
func (t *Tracker) Begin(rule types.MoveRule) types.InvocationToken {
	token := types.InvocationToken{
		ID:         uuid.NewString(),
		RuleID:     rule.ID,
		RuleName:   rule.DisplayName(),
		SourcePath: types.CleanPath(rule.SourcePath),
		TargetPath: types.CleanPath(rule.TargetPath),
		StartedAt:  time.Now(),
	}

	t.mu.Lock()
	t.active[token.ID] = token
	t.mu.Unlock()

	return token
}

// End releases a token. Ending a token twice is a no-op.
func (t *Tracker) End(token types.InvocationToken) {
	t.mu.Lock()
	delete(t.active, token.ID)
	t.mu.Unlock()
}

// Count returns the number of invocations in flight
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Busy reports whether any invocation is in flight
func (t *Tracker) Busy() bool {
	return t.Count() > 0
}

// Active returns the tokens in flight, oldest first
func (t *Tracker) Active() []types.InvocationToken {
	t.mu.Lock()
	tokens := make([]types.InvocationToken, 0, len(t.active))
	for _, token := range t.active {
		tokens = append(tokens, token)
	}
	t.mu.Unlock()

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].StartedAt.Equal(tokens[j].StartedAt) {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].StartedAt.Before(tokens[j].StartedAt)
	})
	return tokens
}

// Attribute returns the in-flight invocation whose source or target folder
// contains path. When several do, the one with the deepest folder wins.
func (t *Tracker) Attribute(path string) (types.InvocationToken, bool) {
	path = types.CleanPath(path)

	var (
		best      types.InvocationToken
		bestDepth = -1
	)
	for _, token := range t.Active() {
		for _, dir := range []string{token.SourcePath, token.TargetPath} {
			if !types.IsWithin(path, dir) {
				continue
			}
			if d := len(dir); d > bestDepth {
				best, bestDepth = token, d
			}
		}
	}
	return best, bestDepth >= 0
}
