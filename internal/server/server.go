// Package server monta o guarda e o http.Server a partir da Config; é o
// wiring compartilhado pelos binários em cmd/.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"request-guard/internal/config"
	"request-guard/middleware/ratelimit"
	"request-guard/middleware/ratelimit/infra"
)

// Guard agrupa o que foi montado a partir da Config.
type Guard struct {
	*ratelimit.Guard

	Window *infra.WindowLog
	Blocks *infra.BlockList

	// Metrics serve /metrics; nil quando METRICS_ENABLED=false.
	Metrics http.Handler

	closers []func() error
}

func (g *Guard) Close() error {
	var first error
	for _, c := range g.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewGuard cria log, lista de bloqueios, stats e o janitor (parado quando ctx encerra).
// reg recebe as métricas; nil usa um registry novo.
func NewGuard(ctx context.Context, cfg config.Config, log *zap.Logger, reg *prometheus.Registry) (*Guard, error) {
	wlog, err := infra.NewWindowLog(cfg.Policy)
	if err != nil {
		return nil, err
	}
	blocks, err := infra.NewBlockList(cfg.Policy)
	if err != nil {
		return nil, err
	}
	infra.StartJanitor(ctx, cfg.CleanupEvery, wlog, blocks)

	g := &Guard{Window: wlog, Blocks: blocks}

	var stats infra.MultiStats
	if cfg.MetricsEnabled {
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		prom := infra.NewPrometheusStats(infra.WithRegistry(reg))
		prom.TrackSizes(wlog, blocks)
		stats = append(stats, prom)
		g.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis stats ping: %w", err)
		}
		g.closers = append(g.closers, rdb.Close)

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		))
	}

	opts := ratelimit.Options{
		Counter:             wlog,
		Blocks:              blocks,
		KeyHeader:           cfg.KeyHeader,
		AddRateLimitHeaders: cfg.AddHeaders,
		Logger:              log,
	}
	if len(stats) > 0 {
		opts.Stats = stats
	}
	g.Guard = ratelimit.NewGuard(opts)

	log.Info("request guard ready",
		zap.Int("max_requests", cfg.Policy.MaxRequests),
		zap.Duration("window", cfg.Policy.Window),
		zap.String("key_header", cfg.KeyHeader),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("redis_stats", cfg.Stats.Enabled),
	)
	return g, nil
}

// Wrap aplica o limite de concorrência (se configurado) e o guarda, nessa
// ordem de fora para dentro: guarda primeiro, depois vagas em voo.
func (g *Guard) Wrap(cfg config.Config, h http.Handler) http.Handler {
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		AcquireTimeout: cfg.Concurrency.Timeout,
	})(h)
	return g.Handler(h)
}

func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

// Run serve até ctx encerrar e então faz shutdown com o timeout informado.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
