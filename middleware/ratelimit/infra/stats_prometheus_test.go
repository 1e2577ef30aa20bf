package infra

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"request-guard/middleware/ratelimit/domain"
)

func TestPrometheusStats_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusStats(WithRegistry(reg))
	ctx := context.Background()

	for _, o := range []domain.Outcome{domain.OutcomeForwarded, domain.OutcomeForwarded, domain.OutcomeLimited, domain.OutcomeBlocked} {
		require.NoError(t, p.Record(ctx, domain.StatsEvent{Key: "k", Outcome: o}))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(p.decisions.WithLabelValues("forwarded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("blocked")))
}

func TestPrometheusStats_TrackSizes(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusStats(WithRegistry(reg), WithNamespace("guard"))

	clock := newFakeClock()
	policy := domain.Policy{MaxRequests: 5, Window: time.Minute}
	l, err := NewWindowLog(policy, WithClock(clock))
	require.NoError(t, err)
	b, err := NewBlockList(policy, WithClock(clock))
	require.NoError(t, err)
	p.TrackSizes(l, b)

	l.Record("a")
	l.Record("b")
	b.Block("a")

	assert.Equal(t, 2.0, gaugeValue(t, reg, "guard_tracked_clients"))
	assert.Equal(t, 1.0, gaugeValue(t, reg, "guard_blocked_clients"))

	// entrada vencida continua contada até a limpeza
	clock.Advance(time.Minute)
	assert.Equal(t, 1.0, gaugeValue(t, reg, "guard_blocked_clients"))
	b.Cleanup()
	assert.Equal(t, 0.0, gaugeValue(t, reg, "guard_blocked_clients"))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name || mf.GetType() != dto.MetricType_GAUGE {
			continue
		}
		if ms := mf.GetMetric(); len(ms) > 0 {
			return ms[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %q not found", name)
	return 0
}
