// Package config carrega a configuração do processo a partir de variáveis de
// ambiente (e de um .env opcional). É lida uma vez na inicialização.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"request-guard/middleware/ratelimit/domain"
)

var ErrMissing = errors.New("required variable not set")

type Config struct {
	ListenAddr  string
	UpstreamURL string
	LogLevel    string

	Policy       domain.Policy
	KeyHeader    string
	AddHeaders   bool
	CleanupEvery time.Duration

	MetricsEnabled bool
	Concurrency    ConcurrencyConfig
	Stats          StatsConfig
}

type ConcurrencyConfig struct {
	Max     int
	Timeout time.Duration
}

type StatsConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	Bucket        string
	TrackKeys     bool
}

// Load lê o .env (se existir) e as variáveis de ambiente.
//
// MAX_REQUESTS_PER_WINDOW e BLOCK_DURATION (segundos) são obrigatórios e
// positivos: o mesmo valor de BLOCK_DURATION é a janela de contagem e a duração
// do bloqueio. Valores malformados em qualquer variável são erro.
func Load() (Config, error) {
	_ = godotenv.Load()

	maxRequests, err := requiredPositiveInt("MAX_REQUESTS_PER_WINDOW")
	if err != nil {
		return Config{}, err
	}
	blockSeconds, err := requiredPositiveInt("BLOCK_DURATION")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		UpstreamURL: getEnv("UPSTREAM_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		KeyHeader:   getEnv("RATE_KEY_HEADER", ""),
		Policy: domain.Policy{
			MaxRequests: maxRequests,
			Window:      time.Duration(blockSeconds) * time.Second,
		},
	}
	if err := cfg.Policy.Validate(); err != nil {
		return Config{}, err
	}

	p := parser{}
	cfg.AddHeaders = p.boolVar("ADD_RATELIMIT_HEADERS", false)
	cfg.CleanupEvery = p.durationVar("CLEANUP_EVERY", time.Minute)
	cfg.MetricsEnabled = p.boolVar("METRICS_ENABLED", true)
	cfg.Concurrency = ConcurrencyConfig{
		Max:     p.intVar("CONCURRENCY_MAX", 0),
		Timeout: p.durationVar("CONCURRENCY_TIMEOUT", 0),
	}
	cfg.Stats = StatsConfig{
		Enabled:       p.boolVar("RATE_STATS_ENABLED", false),
		RedisAddr:     getEnv("RATE_STATS_REDIS_ADDR", ""),
		RedisPassword: os.Getenv("RATE_STATS_REDIS_PASSWORD"),
		RedisDB:       p.intVar("RATE_STATS_REDIS_DB", 0),
		Prefix:        getEnv("RATE_STATS_PREFIX", "requestguard:stats"),
		TTL:           p.durationVar("RATE_STATS_TTL", 24*time.Hour),
		Bucket:        getEnv("RATE_STATS_BUCKET", "minute"),
		TrackKeys:     p.boolVar("RATE_STATS_TRACK_KEYS", false),
	}
	if p.err != nil {
		return Config{}, p.err
	}

	if cfg.Stats.Enabled && cfg.Stats.RedisAddr == "" {
		return Config{}, fmt.Errorf("RATE_STATS_REDIS_ADDR: %w (RATE_STATS_ENABLED=true)", ErrMissing)
	}
	if cfg.Concurrency.Max < 0 {
		return Config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func requiredPositiveInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be > 0, got %d", key, v)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// parser guarda o primeiro erro de parse para não repetir if err != nil a cada campo.
type parser struct {
	err error
}

func (p *parser) raw(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (p *parser) intVar(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return def
	}
	return i
}

func (p *parser) boolVar(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return def
	}
	return b
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return def
	}
	return d
}
