package infra

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"request-guard/middleware/ratelimit/domain"
)

// PrometheusStats expõe as decisões do guarda como métricas Prometheus.
//
// Métricas:
//   - {namespace}_decisions_total   counter (outcome)
//   - {namespace}_tracked_clients   gauge   (após TrackSizes)
//   - {namespace}_blocked_clients   gauge   (após TrackSizes)
//
// A chave do cliente nunca vira label.
type PrometheusStats struct {
	namespace string
	registry  prometheus.Registerer
	decisions *prometheus.CounterVec
}

type prometheusConfig struct {
	namespace string
	registry  prometheus.Registerer
}

type PrometheusOption func(*prometheusConfig)

func WithNamespace(ns string) PrometheusOption {
	return func(c *prometheusConfig) { c.namespace = ns }
}

// WithRegistry registra as métricas no Registerer informado em vez de
// prometheus.DefaultRegisterer.
func WithRegistry(r prometheus.Registerer) PrometheusOption {
	return func(c *prometheusConfig) { c.registry = r }
}

func NewPrometheusStats(opts ...PrometheusOption) *PrometheusStats {
	cfg := &prometheusConfig{
		namespace: "requestguard",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, o := range opts {
		o(cfg)
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Name:      "decisions_total",
		Help:      "Requests seen by the guard partitioned by outcome.",
	}, []string{"outcome"})
	cfg.registry.MustRegister(decisions)

	return &PrometheusStats{
		namespace: cfg.namespace,
		registry:  cfg.registry,
		decisions: decisions,
	}
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	p.decisions.WithLabelValues(string(ev.Outcome)).Inc()
	return nil
}

// Sized é implementado por WindowLog e BlockList.
type Sized interface {
	Keys() int
}

// TrackSizes registra gauges com o número de clientes rastreados e bloqueados.
func (p *PrometheusStats) TrackSizes(tracked, blocked Sized) {
	p.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "tracked_clients",
			Help:      "Clients with at least one request inside the window.",
		}, func() float64 { return float64(tracked.Keys()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "blocked_clients",
			Help:      "Clients with a block entry not yet swept.",
		}, func() float64 { return float64(blocked.Keys()) }),
	)
}
