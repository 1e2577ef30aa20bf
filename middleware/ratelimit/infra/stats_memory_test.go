package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"request-guard/middleware/ratelimit/domain"
)

func TestMemoryStatsStore_CountsByOutcome(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	events := []domain.StatsEvent{
		{Key: "1.2.3.4", Outcome: domain.OutcomeForwarded, Method: "GET", Path: "/"},
		{Key: "1.2.3.4", Outcome: domain.OutcomeLimited, Method: "GET", Path: "/"},
		{Key: "1.2.3.4", Outcome: domain.OutcomeBlocked, Method: "GET", Path: "/"},
		{Key: "5.6.7.8", Outcome: domain.OutcomeForwarded, Method: "POST", Path: "/login"},
	}
	for _, ev := range events {
		require.NoError(t, s.Record(ctx, ev))
	}

	assert.Equal(t, Counters{Forwarded: 2, Blocked: 1, Limited: 1}, s.Total())
	assert.Equal(t, int64(2), s.Total().Rejected())
	assert.Equal(t, Counters{Forwarded: 1, Blocked: 1, Limited: 1}, s.ByRoute()["GET /"])
	assert.Equal(t, Counters{Forwarded: 1}, s.ByKey()["5.6.7.8"])
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Key: "k", Outcome: domain.OutcomeForwarded}))
	assert.Empty(t, s.ByKey())
}

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, domain.StatsEvent) error { return f.err }

func TestMultiStats_FansOutAndJoinsErrors(t *testing.T) {
	a := NewMemoryStatsStore()
	b := NewMemoryStatsStore()
	boom := errors.New("boom")

	m := MultiStats{a, nil, failingStats{err: boom}, b}
	err := m.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeBlocked})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), a.Total().Blocked)
	assert.Equal(t, int64(1), b.Total().Blocked)
}
