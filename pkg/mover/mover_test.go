package mover_test

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/mover"
	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/arthur-debert/tidyvault/pkg/testutil"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(paths ...string) types.MatchSet {
	set := make(types.MatchSet, len(paths))
	for i, p := range paths {
		set[i] = types.Entry{Path: p, Kind: types.KindFile}
	}
	return set
}

type outcomeLog struct {
	mu       sync.Mutex
	outcomes map[string][]types.MoveStatus
}

func (l *outcomeLog) ObserveMove(ruleID string, o types.MoveOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcomes == nil {
		l.outcomes = map[string][]types.MoveStatus{}
	}
	l.outcomes[ruleID] = append(l.outcomes[ruleID], o.Status)
}

func TestDestinationFlattens(t *testing.T) {
	assert.Equal(t, "Archive/name.ext", mover.Destination("Archive", types.Entry{Path: "src/sub/sub2/name.ext"}))
	assert.Equal(t, "name.ext", mover.Destination("", types.Entry{Path: "src/name.ext"}))
}

func TestMoveAllMovesEveryFile(t *testing.T) {
	v := testutil.NewMemoryVault(t, map[string]string{
		"src/a.md":          "a",
		"src/sub/b.md":      "b",
		"src/sub/sub2/c.md": "c",
		"src/sub/keep.txt":  "k",
	})
	testutil.CreateDirT(t, v, "Archive")

	rec := &notify.Recorder{}
	exec := mover.New(v, mover.WithNotifier(rec))

	matches := entries("src/a.md", "src/sub/b.md", "src/sub/sub2/c.md")
	outcomes := exec.MoveAll(matches, mover.Batch{TargetPath: "Archive", RuleID: "r1", Notify: true})

	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Equal(t, matches[i].Path, o.Source)
		assert.True(t, o.Succeeded(), o.Source)
		assert.NoError(t, o.Err)
	}
	assert.Equal(t, "Archive/c.md", outcomes[2].Destination)

	assert.Equal(t, []string{"Archive/a.md", "Archive/b.md", "Archive/c.md", "src/sub/keep.txt"}, testutil.ListFilesT(t, v))
	assert.Equal(t, "c", testutil.ReadFileT(t, v, "Archive/c.md"))

	msgs := rec.Messages()
	sort.Strings(msgs)
	assert.Equal(t, []string{
		"Moved a.md to Archive",
		"Moved b.md to Archive",
		"Moved c.md to Archive",
	}, msgs)
}

func TestMoveAllIsolatesFailures(t *testing.T) {
	v := testutil.NewMemoryVault(t, map[string]string{
		"src/a.md":     "new",
		"src/b.md":     "",
		"src/c.md":     "",
		"Archive/a.md": "old",
	})

	rec := &notify.Recorder{}
	obs := &outcomeLog{}
	exec := mover.New(v, mover.WithNotifier(rec), mover.WithObserver(obs))

	outcomes := exec.MoveAll(entries("src/a.md", "src/b.md", "src/c.md"),
		mover.Batch{TargetPath: "Archive", RuleID: "r1", Notify: true})

	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Succeeded())
	assert.True(t, errors.IsErrorCode(outcomes[0].Err, errors.ErrMoveFailed))
	assert.ErrorIs(t, outcomes[0].Err, errors.New(errors.ErrAlreadyExists, ""))
	assert.True(t, outcomes[1].Succeeded())
	assert.True(t, outcomes[2].Succeeded())

	assert.Equal(t, "old", testutil.ReadFileT(t, v, "Archive/a.md"))
	testutil.AssertFileExists(t, v, "src/a.md")

	var failures int
	for _, n := range rec.Notices() {
		if n.Level == notify.LevelError {
			failures++
			assert.Contains(t, n.Message, "Failed to move src/a.md: ")
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, rec.Notices(), 3)
	assert.Len(t, obs.outcomes["r1"], 3)
}

func TestMoveAllWithoutNotices(t *testing.T) {
	v := testutil.NewMemoryVault(t, map[string]string{"src/a.md": ""})
	testutil.CreateDirT(t, v, "Archive")

	rec := &notify.Recorder{}
	exec := mover.New(v, mover.WithNotifier(rec))

	outcomes := exec.MoveAll(entries("src/a.md"), mover.Batch{TargetPath: "Archive"})
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Succeeded())
	assert.Empty(t, rec.Notices())
}

func TestMoveAllEmptyMatchSet(t *testing.T) {
	tree := testutil.NewMockTree(nil)
	exec := mover.New(tree)

	outcomes := exec.MoveAll(nil, mover.Batch{TargetPath: "Archive"})
	assert.Empty(t, outcomes)
	assert.Equal(t, 0, tree.Calls("Rename"))
}

func TestMoveAllIssuesMovesConcurrently(t *testing.T) {
	const n = 4
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	tree := testutil.NewMockTree(nil)
	tree.RenameFunc = func(types.Entry, string) error {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return nil
	}

	exec := mover.New(tree)
	done := make(chan []types.MoveOutcome)
	go func() {
		done <- exec.MoveAll(entries("a", "b", "c", "d"), mover.Batch{TargetPath: "t"})
	}()

	assert.Eventually(t, func() bool { return peak.Load() == n }, 2*time.Second, 5*time.Millisecond)
	close(release)

	outcomes := <-done
	assert.Len(t, outcomes, n)
}

func TestMoveAllRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	tree := testutil.NewMockTree(nil)
	tree.RenameFunc = func(types.Entry, string) error {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	exec := mover.New(tree, mover.WithMaxConcurrent(2))
	outcomes := exec.MoveAll(entries("a", "b", "c", "d", "e", "f"), mover.Batch{TargetPath: "t"})

	assert.Len(t, outcomes, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 6, tree.Calls("Rename"))
}

func TestMoveAllLeavesFilesAlreadyInTarget(t *testing.T) {
	v := testutil.NewMemoryVault(t, map[string]string{
		"Inbox/PDFs/a.pdf": "a",
		"Inbox/b.pdf":      "b",
	})
	tree := testutil.NewMockTree(v)
	rec := &notify.Recorder{}
	log := &outcomeLog{}
	exec := mover.New(tree, mover.WithNotifier(rec), mover.WithObserver(log))

	outcomes := exec.MoveAll(entries("Inbox/PDFs/a.pdf", "Inbox/b.pdf"), mover.Batch{TargetPath: "Inbox/PDFs", RuleID: "r1", Notify: true})

	require.Len(t, outcomes, 2)
	assert.Equal(t, types.MoveStatusInPlace, outcomes[0].Status)
	assert.False(t, outcomes[0].Succeeded())
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, types.MoveStatusMoved, outcomes[1].Status)

	// Only the real move reaches the tree and the notifier
	assert.Equal(t, 1, tree.Calls("Rename"))
	assert.Equal(t, []string{"Moved b.pdf to Inbox/PDFs"}, rec.Messages())
	assert.Equal(t, []types.MoveStatus{types.MoveStatusInPlace, types.MoveStatusMoved}, sortedStatuses(log.outcomes["r1"]))
	assert.Equal(t, []string{"Inbox/PDFs/a.pdf", "Inbox/PDFs/b.pdf"}, testutil.ListFilesT(t, v))
}

func sortedStatuses(statuses []types.MoveStatus) []types.MoveStatus {
	out := append([]types.MoveStatus(nil), statuses...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
