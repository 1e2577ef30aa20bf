package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"request-guard/internal/config"
	"request-guard/internal/logger"
	"request-guard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger ainda não existe: usa o default de produção só para esse erro.
		zap.Must(zap.NewProduction()).Fatal("config error", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("logger error", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("gateway stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	h, closeFn, err := newHandler(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	srv := server.NewHTTPServer(cfg.ListenAddr, h)
	log.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("upstream", cfg.UpstreamURL),
		zap.Int("concurrency_max", cfg.Concurrency.Max),
		zap.Duration("concurrency_timeout", cfg.Concurrency.Timeout),
	)
	return server.Run(ctx, srv, log, 10*time.Second)
}

// newHandler monta proxy + guarda. /metrics é servido pelo próprio gateway e
// não passa pelo guarda.
func newHandler(ctx context.Context, cfg config.Config, log *zap.Logger) (http.Handler, func() error, error) {
	if cfg.UpstreamURL == "" {
		return nil, nil, fmt.Errorf("UPSTREAM_URL: %w", config.ErrMissing)
	}
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, nil, errors.New("invalid UPSTREAM_URL: scheme and host are required")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	g, err := server.NewGuard(ctx, cfg, log, nil)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	if g.Metrics != nil {
		mux.Handle("/metrics", g.Metrics)
	}
	mux.Handle("/", g.Wrap(cfg, proxy))
	return mux, g.Close, nil
}
