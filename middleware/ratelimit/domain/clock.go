package domain

import "time"

// Clock é a fonte de "agora". Cada cálculo lê o relógio uma única vez.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapta uma função para Clock (útil em testes).
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
