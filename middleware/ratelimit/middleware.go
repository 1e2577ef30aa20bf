package ratelimit

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"request-guard/middleware/ratelimit/application"
	"request-guard/middleware/ratelimit/domain"
)

// RejectionMessage é o corpo das respostas negadas.
const RejectionMessage = "Rate limit exceeded, Please try again later."

type Options struct {
	Counter domain.WindowCounter
	Blocks  domain.BlockRegistry
	Clock   domain.Clock
	Stats   domain.StatsStore

	KeyFn     KeyFunc
	KeyHeader string

	RejectStatus        int
	AddRateLimitHeaders bool

	Logger *zap.Logger
	// LogEvery é o intervalo mínimo entre logs de requisições negadas para
	// clientes já bloqueados. Novos bloqueios são sempre logados.
	LogEvery time.Duration
}

type rateInfo interface {
	Limit() int
	Remaining(domain.Key) int
}

// Guard é o controlador de interceptação: identifica, decide, deixa o handler
// rodar e registra. É usado pelo middleware net/http e pelo adapter gin.
type Guard struct {
	svc    application.Service
	opts   Options
	logLim *rate.Limiter
}

func NewGuard(opts Options) *Guard {
	if opts.Counter == nil || opts.Blocks == nil {
		panic("ratelimit: Counter and Blocks are required")
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusForbidden
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = time.Second
	}

	return &Guard{
		svc: application.Service{
			Counter: opts.Counter,
			Blocks:  opts.Blocks,
			Clock:   opts.Clock,
		},
		opts:   opts,
		logLim: rate.NewLimiter(rate.Every(opts.LogEvery), 1),
	}
}

// Check identifica o cliente e decide. Em caso de negação o chamador deve
// responder com Reject e não chamar o próximo handler.
func (g *Guard) Check(r *http.Request) (domain.Key, domain.Decision) {
	key := domain.Key(g.opts.KeyFn(r))
	dec := g.svc.Decide(key)

	g.record(r, key, dec)
	g.logDecision(key, dec)
	return key, dec
}

// Complete registra a requisição liberada; chamar só depois que o handler retornou.
func (g *Guard) Complete(key domain.Key) {
	g.svc.Complete(key)
}

// Reject escreve a resposta de negação.
func (g *Guard) Reject(w http.ResponseWriter, dec domain.Decision) {
	if dec.RetryAfter > 0 {
		w.Header().Set("Retry-After", formatRetryAfter(dec.RetryAfter))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(g.opts.RejectStatus)
	_, _ = w.Write([]byte(RejectionMessage))
}

// SetHeaders escreve X-RateLimit-* quando habilitado. O Remaining já desconta
// a requisição atual, que só será registrada depois do handler.
func (g *Guard) SetHeaders(w http.ResponseWriter, key domain.Key) {
	if !g.opts.AddRateLimitHeaders {
		return
	}
	ri, ok := g.opts.Counter.(rateInfo)
	if !ok {
		return
	}
	remaining := ri.Remaining(key) - 1
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", formatInt(ri.Limit()))
	w.Header().Set("X-RateLimit-Remaining", formatInt(remaining))
}

func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, dec := g.Check(r)
		if !dec.Allowed {
			g.Reject(w, dec)
			return
		}

		g.SetHeaders(w, key)
		next.ServeHTTP(w, r)
		// se o handler entrar em pânico não chegamos aqui: nada é registrado.
		g.Complete(key)
	})
}

func (g *Guard) record(r *http.Request, key domain.Key, dec domain.Decision) {
	if g.opts.Stats == nil {
		return
	}
	err := g.opts.Stats.Record(r.Context(), domain.StatsEvent{
		Key:     key,
		Outcome: dec.Outcome,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      g.opts.Clock.Now(),
	})
	if err != nil {
		g.opts.Logger.Warn("failed to record rate limit stats", zap.Error(err))
	}
}

func (g *Guard) logDecision(key domain.Key, dec domain.Decision) {
	switch dec.Outcome {
	case domain.OutcomeLimited:
		g.opts.Logger.Info("client blocked",
			zap.String("client", string(key)),
			zap.Duration("cooldown", dec.RetryAfter),
		)
	case domain.OutcomeBlocked:
		if g.logLim.Allow() {
			g.opts.Logger.Warn("request rejected, client is blocked",
				zap.String("client", string(key)),
				zap.Duration("retry_after", dec.RetryAfter),
			)
		}
	}
}

// Middleware monta o Guard e devolve o middleware net/http.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	return NewGuard(opts).Handler
}
