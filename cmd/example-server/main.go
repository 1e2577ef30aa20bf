package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"request-guard/internal/config"
	"request-guard/internal/logger"
	"request-guard/internal/server"
)

// Exemplo: o guarda injetado direto na aplicação (sem proxy).
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := server.NewGuard(ctx, cfg, log, nil)
	if err != nil {
		log.Fatal("failed to build guard", zap.Error(err))
	}
	defer func() {
		if err := g.Close(); err != nil {
			log.Warn("failed to close guard", zap.Error(err))
		}
	}()

	srv := server.NewHTTPServer(cfg.ListenAddr, newRouter(cfg, g))
	log.Info("example server listening", zap.String("addr", cfg.ListenAddr))
	if err := server.Run(ctx, srv, log, 5*time.Second); err != nil {
		log.Error("example server stopped", zap.Error(err))
	}
}

// newRouter: /healthz e /metrics ficam fora do guarda; o resto passa por ele.
func newRouter(cfg config.Config, g *server.Guard) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if g.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return g.Wrap(cfg, next) })
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok\n"))
		})
	})
	return r
}
