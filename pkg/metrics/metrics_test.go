package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/metrics"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationMetrics(t *testing.T) {
	m := metrics.New()

	m.InvocationStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))

	m.InvocationFinished(&types.RunReport{RuleID: "r1", Matched: 3, Duration: 10 * time.Millisecond})
	m.InvocationStarted()
	m.InvocationFinished(&types.RunReport{
		RuleID: "r1",
		Err:    errors.New(errors.ErrInvalidPattern, "invalid pattern"),
	})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("r1", metrics.ResultCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("r1", "INVALID_PATTERN")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Matched.WithLabelValues("r1")))
}

func TestMoveAndChangeMetrics(t *testing.T) {
	m := metrics.New()

	m.ObserveMove("r1", types.MoveOutcome{Status: types.MoveStatusMoved})
	m.ObserveMove("r1", types.MoveOutcome{Status: types.MoveStatusMoved})
	m.ObserveMove("r1", types.MoveOutcome{Status: types.MoveStatusFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Moves.WithLabelValues("r1", "moved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Moves.WithLabelValues("r1", "failed")))

	m.ObserveChange(types.ChangeEvent{Op: types.ChangeRenamed}, types.InvocationToken{}, true)
	m.ObserveChange(types.ChangeEvent{Op: types.ChangeCreated}, types.InvocationToken{}, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Changes.WithLabelValues("renamed", "rule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Changes.WithLabelValues("created", "external")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := metrics.New()
	m.ObserveMove("r1", types.MoveOutcome{Status: types.MoveStatusMoved})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "tidyvault_moves_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
