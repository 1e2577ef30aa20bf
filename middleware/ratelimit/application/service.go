package application

import (
	"time"

	"request-guard/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do guarda.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Decide e Complete são chamados separadamente pelo adapter; entre os dois roda
// o handler downstream, sem nenhum lock do guarda adquirido.
type Service struct {
	Counter domain.WindowCounter
	Blocks  domain.BlockRegistry
	Clock   domain.Clock
}

// untilReader é implementado por registries que sabem quando o bloqueio acaba.
type untilReader interface {
	Until(domain.Key) (time.Time, bool)
}

// Decide aplica, nesta ordem: bloqueio ativo, limite da janela.
// Ao estourar o limite a chave é bloqueada. Nenhum caminho registra a requisição.
func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Counter == nil || s.Blocks == nil {
		return domain.Decision{Allowed: true, Outcome: domain.OutcomeForwarded}
	}

	if until, blocked := s.blockedUntil(key); blocked {
		return domain.Decision{
			Allowed:    false,
			Outcome:    domain.OutcomeBlocked,
			RetryAfter: s.remaining(until),
		}
	}

	if s.Counter.OverLimit(key) {
		until := s.Blocks.Block(key)
		return domain.Decision{
			Allowed:    false,
			Outcome:    domain.OutcomeLimited,
			RetryAfter: s.remaining(until),
		}
	}

	return domain.Decision{Allowed: true, Outcome: domain.OutcomeForwarded}
}

// Complete registra a requisição liberada. Deve ser chamado só depois que o
// handler downstream retornou normalmente.
func (s Service) Complete(key domain.Key) {
	if s.Counter == nil {
		return
	}
	s.Counter.Record(key)
}

func (s Service) blockedUntil(key domain.Key) (time.Time, bool) {
	if u, ok := s.Blocks.(untilReader); ok {
		return u.Until(key)
	}
	return time.Time{}, s.Blocks.Blocked(key)
}

func (s Service) remaining(until time.Time) time.Duration {
	if until.IsZero() {
		return 0
	}
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	if d := until.Sub(now); d > 0 {
		return d
	}
	return 0
}
