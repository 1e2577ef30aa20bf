package infra

import (
	"context"
	"time"
)

// Cleaner é qualquer estrutura com limpeza periódica (WindowLog, BlockList).
type Cleaner interface {
	Cleanup()
}

// StartJanitor inicia uma goroutine que chama Cleanup em todos os cleaners a cada
// `every`. Pare cancelando o contexto. Com every <= 0 não faz nada.
func StartJanitor(ctx context.Context, every time.Duration, cleaners ...Cleaner) {
	if every <= 0 || len(cleaners) == 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				for _, c := range cleaners {
					c.Cleanup()
				}
			}
		}
	}()
}
