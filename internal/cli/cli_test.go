package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/tidyvault/internal/cli"
	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	out    string
	errOut string
	err    error
}

func setup(t *testing.T) *testutil.TestEnvironment {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	return testutil.NewTestEnvironment(t, testutil.EnvIsolated)
}

func execute(t *testing.T, env *testutil.TestEnvironment, args ...string) result {
	t.Helper()
	return executeContext(context.Background(), t, env, args...)
}

func executeContext(ctx context.Context, t *testing.T, env *testutil.TestEnvironment, args ...string) result {
	t.Helper()
	root := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--vault", env.VaultRoot}, args...))
	err := root.ExecuteContext(ctx)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func addInboxRule(t *testing.T, env *testutil.TestEnvironment, extra ...string) {
	t.Helper()
	args := append([]string{"rules", "add", "--name", "Inbox to Notes", "--source", "Inbox", "--pattern", `\.md$`, "--target", "Notes"}, extra...)
	res := execute(t, env, args...)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Added rule Inbox to Notes")
}

func TestRulesLifecycle(t *testing.T) {
	env := setup(t)
	addInboxRule(t, env)

	res := execute(t, env, "rules", "list", "-o", "text")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Inbox to Notes")
	assert.Contains(t, res.out, "enabled")

	res = execute(t, env, "rules", "show", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "file_pattern: \\.md$")

	res = execute(t, env, "rules", "disable", "Inbox to Notes")
	require.NoError(t, res.err)
	assert.Equal(t, "Disabled rule Inbox to Notes\n", res.out)

	res = execute(t, env, "rules", "list", "-o", "json")
	require.NoError(t, res.err)
	var rules []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.out), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, false, rules[0]["enabled"])
	assert.NotEmpty(t, rules[0]["id"])

	res = execute(t, env, "rules", "enable", "Inbox to Notes")
	require.NoError(t, res.err)

	res = execute(t, env, "rules", "remove", "Inbox to Notes")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Removed rule Inbox to Notes")

	res = execute(t, env, "rules", "list", "-o", "text")
	require.NoError(t, res.err)
	assert.Equal(t, "No rules configured\n", res.out)
}

func TestRulesAddValidation(t *testing.T) {
	env := setup(t)

	res := execute(t, env, "rules", "add", "--pattern", "x")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidInput))

	res = execute(t, env, "rules", "add", "--pattern", "x", "--target", "Notes")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidInput))
	assert.Contains(t, res.err.Error(), "--source is required")

	res = execute(t, env, "rules", "add", "--source", "/", "--pattern", "x", "--target", "Notes")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidInput))
	assert.Contains(t, res.err.Error(), "--source must name a folder")

	res = execute(t, env, "rules", "add", "--source", "Inbox", "--pattern", "x", "--target", " ")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidInput))

	res = execute(t, env, "rules", "add", "--source", "Inbox", "--pattern", "[", "--target", "Notes")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidPattern))

	res = execute(t, env, "rules", "add", "--id", "r1", "--source", "S", "--pattern", "x", "--target", "T")
	require.NoError(t, res.err)
	res = execute(t, env, "rules", "add", "--id", "r1", "--source", "S", "--pattern", "y", "--target", "T")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrDuplicateRule))

	res = execute(t, env, "rules", "remove", "nope")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrRuleNotFound))
}

func TestRunMovesFilesAndJournals(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{
		"Inbox/a.md":         "a",
		"Inbox/deep/b.md":    "b",
		"Inbox/keep.txt":     "c",
		"Elsewhere/other.md": "d",
	})
	addInboxRule(t, env)

	res := execute(t, env, "run", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Inbox to Notes: moved 2 of 2 files")
	assert.Contains(t, res.errOut, "Moved a.md to Notes")

	assert.Equal(t, []string{
		"Elsewhere/other.md",
		"Inbox/keep.txt",
		"Notes/a.md",
		"Notes/b.md",
	}, env.Files())

	res = execute(t, env, "history", "-o", "json")
	require.NoError(t, res.err)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.out), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Inbox to Notes", history[0]["rule_name"])
	assert.Len(t, history[0]["moves"], 2)

	res = execute(t, env, "history", "--rule", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "moved 2 of 2")
}

func TestRunNoNotify(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{"Inbox/a.md": "a"})
	addInboxRule(t, env)

	res := execute(t, env, "--no-notify", "run", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Empty(t, res.errOut)
	testutil.AssertFileExists(t, env.Vault, "Notes/a.md")

	// Turning notices off in the settings has the same effect
	env.WithFiles(map[string]string{"Inbox/b.md": "b"})
	require.NoError(t, execute(t, env, "rules", "notify", "off").err)
	res = execute(t, env, "run", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Empty(t, res.errOut)
}

func TestRunErrors(t *testing.T) {
	env := setup(t)

	res := execute(t, env, "run")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrInvalidInput))

	res = execute(t, env, "run", "missing")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrRuleNotFound))

	addInboxRule(t, env)
	res = execute(t, env, "run", "Inbox to Notes", "-o", "text")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrSourceNotFound))
	assert.Contains(t, res.out, "source folder not found")
	testutil.AssertNoFile(t, env.Vault, "Notes")
}

func TestRunDisabledRuleIsNotAFailure(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{"Inbox/a.md": "a"})
	addInboxRule(t, env, "--disabled")

	res := execute(t, env, "run", "Inbox to Notes", "-o", "text")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "rule disabled")
	testutil.AssertFileExists(t, env.Vault, "Inbox/a.md")
}

func TestRunReportsCollisions(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{
		"Inbox/a.md": "new",
		"Inbox/b.md": "b",
		"Notes/a.md": "old",
	})
	addInboxRule(t, env)

	res := execute(t, env, "run", "Inbox to Notes", "-o", "text")
	assert.True(t, errors.IsErrorCode(res.err, errors.ErrMoveFailed))
	assert.Contains(t, res.out, "1 failed")

	assert.Equal(t, "old", testutil.ReadFileT(t, env.Vault, "Notes/a.md"))
	testutil.AssertFileExists(t, env.Vault, "Inbox/a.md")
	testutil.AssertFileExists(t, env.Vault, "Notes/b.md")
}

func TestRunAll(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{
		"Inbox/a.md":  "a",
		"Inbox/b.pdf": "b",
	})
	addInboxRule(t, env)
	require.NoError(t, execute(t, env, "rules", "add", "--name", "Papers", "--source", "Inbox", "--pattern", `\.pdf$`, "--target", "Papers").err)
	require.NoError(t, execute(t, env, "rules", "add", "--name", "Off", "--source", "Inbox", "--pattern", ".", "--target", "Trash", "--disabled").err)

	res := execute(t, env, "run", "--all", "-o", "json")
	require.NoError(t, res.err)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "Inbox to Notes", reports[0]["rule_name"])
	assert.Equal(t, "Papers", reports[1]["rule_name"])

	assert.Equal(t, []string{"Notes/a.md", "Papers/b.pdf"}, env.Files())
}

func TestHistoryPrune(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{"Inbox/a.md": "a"})
	addInboxRule(t, env)
	require.NoError(t, execute(t, env, "run", "Inbox to Notes").err)

	time.Sleep(20 * time.Millisecond)
	res := execute(t, env, "history", "--prune-older-than", "10ms")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Removed 1 invocation(s)")

	res = execute(t, env, "history", "-o", "text")
	require.NoError(t, res.err)
	assert.Equal(t, "No invocations recorded\n", res.out)
}

func TestConfigCommands(t *testing.T) {
	env := setup(t)

	res := execute(t, env, "config", "path")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, filepath.Join(env.ConfigHome, "tidyvault", "settings.toml"))
	assert.Contains(t, res.out, filepath.Join(env.StateHome, "tidyvault", "journal.db"))

	res = execute(t, env, "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "vault.root")
	assert.Contains(t, res.out, env.VaultRoot)
	assert.Contains(t, res.out, "pattern.engine        = ecmascript")

	res = execute(t, env, "config", "show", "--defaults")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "[pattern]")
}

func TestVersionAndHelp(t *testing.T) {
	env := setup(t)

	res := execute(t, env, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "tidyvault version")

	res = execute(t, env, "help", "topics")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "patterns")
	assert.Contains(t, res.out, "--no-notify")

	res = execute(t, env, "completion", "bash")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "tidyvault")
}

func TestWatchAutoRunsRules(t *testing.T) {
	env := setup(t)
	env.WithFiles(map[string]string{"Inbox/.keep": ""})
	addInboxRule(t, env)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan result, 1)
	go func() {
		done <- executeContext(ctx, t, env, "watch", "--auto", "-o", "text")
	}()

	// Give the watcher time to register the vault folders
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(env.VaultRoot, "Inbox", "new.md"), []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(env.VaultRoot, "Notes", "new.md"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "Watching "+env.VaultRoot)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
