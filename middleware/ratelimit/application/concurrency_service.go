package application

import (
	"context"
	"errors"
	"time"

	"request-guard/middleware/ratelimit/domain"
)

var ErrNoSlot = errors.New("no slot available")

// ConcurrencyService limita requisições em voo, com timeout de aquisição,
// sem saber nada sobre HTTP. É independente do limite por cliente.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - Sem Pool, sempre libera (release é no-op).
//   - AcquireTimeout <= 0 espera até ctx encerrar.
//   - AcquireTimeout > 0 espera no máximo esse tempo.
//
// Em erro nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, ErrNoSlot
	}
	return release, nil
}
