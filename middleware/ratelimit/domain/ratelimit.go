package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"errors"
	"fmt"
	"time"
)

// Key identifica o cliente (IP, primeiro IP do X-Forwarded-For, header de API...).
// Não é validada: string vazia é um bucket como qualquer outro.
type Key string

var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// Policy é a configuração do guarda.
//
// Window é usada tanto como janela de contagem quanto como duração do bloqueio.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be > 0, got %d", ErrInvalidPolicy, p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be > 0, got %s", ErrInvalidPolicy, p.Window)
	}
	return nil
}

// WindowCounter registra requisições por chave e diz se a chave passou do limite
// dentro da janela.
//
// OverLimit e Record são passos separados: quem verifica não registra.
type WindowCounter interface {
	OverLimit(Key) bool
	Record(Key)
}

// BlockRegistry guarda os bloqueios ativos. Não existe "unblock": o bloqueio
// expira sozinho quando o instante final passa.
type BlockRegistry interface {
	Blocked(Key) bool
	Block(Key) time.Time
}

// Outcome é o estado terminal de uma requisição no guarda.
type Outcome string

const (
	OutcomeForwarded Outcome = "forwarded"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeLimited   Outcome = "limited"
)

type Decision struct {
	Allowed bool
	Outcome Outcome
	// RetryAfter é o tempo restante de bloqueio quando a decisão nega.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
