package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/followctl/internal/movement"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, time.Now())

	m.ObserveCommand("leader", nil)
	m.ObserveCommand("leader", nil)
	m.ObserveCommand("load_party", errors.New("boom"))
	m.ObserveSearch(movement.SearchFound, 7)
	m.ObserveSearch(movement.SearchExhausted, 40)
	m.ObserveTick(2 * time.Millisecond)
	m.SetThreads(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("leader", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("load_party", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchesTotal.WithLabelValues("exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticksTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.threadsActive))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, time.Now().Add(-time.Minute))
	m.ObserveSearch(movement.SearchPartial, 3)

	rec := httptest.NewRecorder()
	m.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `followctl_path_searches_total{result="partial"} 1`))
	assert.Contains(t, body, "followctl_uptime_seconds")
}

func TestSatisfiesSearchObserver(t *testing.T) {
	var _ movement.SearchObserver = NewMetrics(prometheus.NewRegistry(), time.Now())
}
