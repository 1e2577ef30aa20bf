package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"request-guard/internal/config"
	"request-guard/middleware/ratelimit"
	"request-guard/middleware/ratelimit/domain"
)

func baseConfig() config.Config {
	return config.Config{
		Policy:         domain.Policy{MaxRequests: 2, Window: time.Minute},
		CleanupEvery:   time.Minute,
		MetricsEnabled: true,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestNewGuard_WiresMetricsAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Stats = config.StatsConfig{
		Enabled:   true,
		RedisAddr: mr.Addr(),
		Prefix:    "test:stats",
		TTL:       time.Hour,
		Bucket:    "minute",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, err := NewGuard(ctx, cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer g.Close()

	h := g.Wrap(cfg, okHandler())
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "1.2.3.4:1"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	assert.True(t, g.Blocks.Blocked("1.2.3.4"))
	assert.Equal(t, "2", mr.HGet("test:stats:total", "forwarded"))
	assert.Equal(t, "1", mr.HGet("test:stats:total", "limited"))

	require.NotNil(t, g.Metrics)
	w := httptest.NewRecorder()
	g.Metrics.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `requestguard_decisions_total{outcome="forwarded"} 2`)
	assert.Contains(t, body, `requestguard_decisions_total{outcome="limited"} 1`)
	assert.Contains(t, body, "requestguard_blocked_clients 1")
}

func TestNewGuard_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig()
	cfg.Stats = config.StatsConfig{Enabled: true, RedisAddr: addr}

	_, err := NewGuard(context.Background(), cfg, zap.NewNop(), nil)
	assert.ErrorContains(t, err, "redis stats ping")
}

func TestNewGuard_MetricsDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.MetricsEnabled = false

	g, err := NewGuard(context.Background(), cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Nil(t, g.Metrics)
	assert.NoError(t, g.Close())
}

func TestNewGuard_InvalidPolicy(t *testing.T) {
	cfg := baseConfig()
	cfg.Policy.MaxRequests = 0

	_, err := NewGuard(context.Background(), cfg, zap.NewNop(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestWrap_RejectsWithForbidden(t *testing.T) {
	cfg := baseConfig()
	cfg.Policy.MaxRequests = 1
	cfg.Concurrency.Max = 10

	g, err := NewGuard(context.Background(), cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	h := g.Wrap(cfg, okHandler())

	var codes []int
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "9.9.9.9")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
		if w.Code == http.StatusForbidden {
			assert.True(t, strings.HasPrefix(w.Body.String(), ratelimit.RejectionMessage))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusForbidden}, codes)
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", okHandler())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, zap.NewNop(), time.Second) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
