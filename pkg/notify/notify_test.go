package notify_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &notify.Recorder{}
	r.Notify(notify.Notice{Level: notify.LevelSuccess, Message: "one"})
	r.Notify(notify.Notice{Level: notify.LevelError, Message: "two"})

	assert.Equal(t, []string{"one", "two"}, r.Messages())
	assert.Equal(t, notify.LevelError, r.Notices()[1].Level)

	r.Reset()
	assert.Empty(t, r.Notices())
}

func TestTerminalPlain(t *testing.T) {
	var buf bytes.Buffer
	term := &notify.Terminal{Writer: &buf, Plain: true}

	term.Notify(notify.Notice{Level: notify.LevelSuccess, Message: "Moved a.md to Archive"})
	term.Notify(notify.Notice{Level: notify.LevelError, Message: "Failed to move b.md"})

	assert.Equal(t, "success: Moved a.md to Archive\nerror: Failed to move b.md\n", buf.String())
}

func TestTerminalStyled(t *testing.T) {
	var buf bytes.Buffer
	term := &notify.Terminal{Writer: &buf}

	term.Notify(notify.Notice{Level: notify.LevelWarning, Message: "rule disabled"})

	out := buf.String()
	assert.Contains(t, out, "rule disabled")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestMulti(t *testing.T) {
	a, b := &notify.Recorder{}, &notify.Recorder{}
	m := notify.Multi{a, nil, b}

	m.Notify(notify.Notice{Message: "hello"})

	assert.Equal(t, []string{"hello"}, a.Messages())
	assert.Equal(t, []string{"hello"}, b.Messages())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.Discard.Notify(notify.Notice{Message: "ignored"})
	})
}
