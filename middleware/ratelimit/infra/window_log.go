package infra

import (
	"fmt"
	"time"

	"request-guard/middleware/ratelimit/domain"
)

type logEntry struct {
	at     time.Time
	weight int
}

// WindowLog implementa domain.WindowCounter guardando, por chave, o instante de
// cada requisição concluída.
//
// Entradas fora da janela são descartadas a cada acesso à chave; chaves sem
// entradas vivas são removidas pelo Cleanup (ver StartJanitor).
type WindowLog struct {
	policy domain.Policy
	clock  domain.Clock
	table  *shardTable[[]logEntry]
}

var _ domain.WindowCounter = (*WindowLog)(nil)

func NewWindowLog(policy domain.Policy, opts ...Option) (*WindowLog, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("window log: %w", err)
	}
	o := applyOptions(opts)
	return &WindowLog{
		policy: policy,
		clock:  o.clock,
		table:  newShardTable[[]logEntry](o.shards),
	}, nil
}

// OverLimit diz se a requisição que está sendo avaliada estoura o limite:
// as entradas vivas (instante estritamente depois de now-janela) mais ela
// mesma passam de MaxRequests. A requisição avaliada não é registrada aqui.
func (w *WindowLog) OverLimit(key domain.Key) bool {
	now := w.clock.Now()
	k := string(key)

	s := w.table.get(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	live := w.evict(s.m, k, now)
	return sumWeights(live)+1 > w.policy.MaxRequests
}

// Record adiciona (now, 1) ao log da chave.
func (w *WindowLog) Record(key domain.Key) {
	now := w.clock.Now()
	k := string(key)

	s := w.table.get(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	live := w.evict(s.m, k, now)
	s.m[k] = append(live, logEntry{at: now, weight: 1})
}

// Count retorna a soma dos pesos dentro da janela.
func (w *WindowLog) Count(key domain.Key) int {
	now := w.clock.Now()
	k := string(key)

	s := w.table.get(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	return sumWeights(w.evict(s.m, k, now))
}

// Len retorna o número de entradas armazenadas para a chave, sem despejo.
func (w *WindowLog) Len(key domain.Key) int {
	k := string(key)
	s := w.table.get(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m[k])
}

// Remaining é quantas requisições a chave ainda pode fazer na janela atual.
func (w *WindowLog) Remaining(key domain.Key) int {
	if r := w.policy.MaxRequests - w.Count(key); r > 0 {
		return r
	}
	return 0
}

func (w *WindowLog) Limit() int { return w.policy.MaxRequests }

// Keys retorna quantas chaves estão sendo rastreadas.
func (w *WindowLog) Keys() int { return w.table.size() }

func (w *WindowLog) Cleanup() {
	now := w.clock.Now()
	w.table.each(func(m map[string][]logEntry) {
		for k := range m {
			w.evict(m, k, now)
		}
	})
}

// evict filtra (in-place) as entradas vencidas da chave e devolve as vivas.
// Deve ser chamado com o lock do shard adquirido.
func (w *WindowLog) evict(m map[string][]logEntry, k string, now time.Time) []logEntry {
	entries, ok := m[k]
	if !ok {
		return nil
	}
	cutoff := now.Add(-w.policy.Window)
	live := entries[:0]
	for _, e := range entries {
		if e.at.After(cutoff) {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		delete(m, k)
		return nil
	}
	m[k] = live
	return live
}

func sumWeights(entries []logEntry) int {
	n := 0
	for _, e := range entries {
		n += e.weight
	}
	return n
}
