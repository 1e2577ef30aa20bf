package infra

import (
	"fmt"
	"time"

	"request-guard/middleware/ratelimit/domain"
)

// BlockList implementa domain.BlockRegistry: um instante final por chave.
// Entradas vencidas equivalem a ausência e são apagadas na leitura ou no Cleanup.
type BlockList struct {
	cooldown time.Duration
	clock    domain.Clock
	table    *shardTable[time.Time]
}

var _ domain.BlockRegistry = (*BlockList)(nil)

// NewBlockList usa policy.Window como duração do bloqueio.
func NewBlockList(policy domain.Policy, opts ...Option) (*BlockList, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("block list: %w", err)
	}
	o := applyOptions(opts)
	return &BlockList{
		cooldown: policy.Window,
		clock:    o.clock,
		table:    newShardTable[time.Time](o.shards),
	}, nil
}

func (b *BlockList) Blocked(key domain.Key) bool {
	_, ok := b.Until(key)
	return ok
}

// Block cria ou sobrescreve o bloqueio da chave até now+cooldown.
func (b *BlockList) Block(key domain.Key) time.Time {
	until := b.clock.Now().Add(b.cooldown)
	k := string(key)

	s := b.table.get(k)
	s.mu.Lock()
	s.m[k] = until
	s.mu.Unlock()
	return until
}

// Until retorna o fim do bloqueio ativo da chave.
func (b *BlockList) Until(key domain.Key) (time.Time, bool) {
	now := b.clock.Now()
	k := string(key)

	s := b.table.get(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.m[k]
	if !ok {
		return time.Time{}, false
	}
	if !until.After(now) {
		delete(s.m, k)
		return time.Time{}, false
	}
	return until, true
}

func (b *BlockList) Keys() int { return b.table.size() }

func (b *BlockList) Cleanup() {
	now := b.clock.Now()
	b.table.each(func(m map[string]time.Time) {
		for k, until := range m {
			if !until.After(now) {
				delete(m, k)
			}
		}
	})
}
