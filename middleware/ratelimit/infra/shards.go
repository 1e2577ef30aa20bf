package infra

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"request-guard/middleware/ratelimit/domain"
)

const defaultShards = 32

// shard é uma fatia da tabela protegida pelo próprio mutex.
// Todas as operações de uma mesma chave caem sempre no mesmo shard.
type shard[V any] struct {
	mu sync.Mutex
	m  map[string]V
}

type shardTable[V any] struct {
	shards []*shard[V]
}

func newShardTable[V any](n int) *shardTable[V] {
	if n <= 0 {
		n = defaultShards
	}
	t := &shardTable[V]{shards: make([]*shard[V], n)}
	for i := range t.shards {
		t.shards[i] = &shard[V]{m: make(map[string]V)}
	}
	return t
}

func (t *shardTable[V]) get(key string) *shard[V] {
	return t.shards[xxhash.Sum64String(key)%uint64(len(t.shards))]
}

// each percorre os shards um por vez, com o lock do shard adquirido.
func (t *shardTable[V]) each(fn func(m map[string]V)) {
	for _, s := range t.shards {
		s.mu.Lock()
		fn(s.m)
		s.mu.Unlock()
	}
}

func (t *shardTable[V]) size() int {
	n := 0
	t.each(func(m map[string]V) { n += len(m) })
	return n
}

type tableOptions struct {
	clock  domain.Clock
	shards int
}

// Option configura WindowLog e BlockList.
type Option func(*tableOptions)

func WithClock(c domain.Clock) Option {
	return func(o *tableOptions) { o.clock = c }
}

func WithShards(n int) Option {
	return func(o *tableOptions) { o.shards = n }
}

func applyOptions(opts []Option) tableOptions {
	o := tableOptions{clock: domain.SystemClock{}, shards: defaultShards}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = domain.SystemClock{}
	}
	return o
}
