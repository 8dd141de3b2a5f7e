// Package timeutil abstrai relógio, tickers e callbacks atrasados para que o
// cronômetro da missão e as simulações de status possam ser testados.
package timeutil

import (
	"sort"
	"sync"
	"time"
)

// Clock fornece as operações de tempo usadas pelos serviços
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	NewTicker(d time.Duration) Ticker
	// AfterFunc executa f em sua própria goroutine depois de d
	AfterFunc(d time.Duration, f func()) Timer
}

// Ticker entrega "ticks" em intervalos fixos
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer representa um callback agendado
type Timer interface {
	Stop() bool
}

// RealClock implementa Clock com o pacote time
type RealClock struct{}

// Now retorna o horário atual
func (RealClock) Now() time.Time { return time.Now() }

// Since retorna o tempo decorrido desde t
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewTicker cria um ticker real
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

// AfterFunc agenda f com time.AfterFunc
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time { return t.ticker.C }
func (t *realTicker) Stop()               { t.ticker.Stop() }

// MockClock é um relógio controlado manualmente para testes.
// Advance dispara, em ordem de vencimento, os callbacks e ticks pendentes.
type MockClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*mockTimer
	tickers []*mockTicker
}

// NewMockClock cria um relógio parado em start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now retorna o horário simulado
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since retorna o tempo simulado decorrido desde t
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// NewTicker cria um ticker que só avança com Advance
func (c *MockClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTicker{
		clock:  c,
		period: d,
		next:   c.now.Add(d),
		ch:     make(chan time.Time, 64),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// AfterFunc agenda f para quando o relógio simulado passar de d
func (c *MockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clock: c, when: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending retorna quantos callbacks ainda não dispararam
func (c *MockClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// ActiveTickers retorna quantos tickers ainda não foram parados
func (c *MockClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance move o relógio em d. Callbacks rodam de forma síncrona, na
// goroutine de quem chamou, para que os testes observem o efeito em seguida.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			return c.timers[i].when.Before(c.timers[j].when)
		})

		var due *mockTimer
		if len(c.timers) > 0 && !c.timers[0].when.After(target) {
			due = c.timers[0]
			c.timers = c.timers[1:]
			c.now = due.when
		}

		if due == nil {
			c.now = target
			for _, t := range c.tickers {
				for !t.stopped && !t.next.After(target) {
					select {
					case t.ch <- t.next:
					default:
					}
					t.next = t.next.Add(t.period)
				}
			}
			c.mu.Unlock()
			return
		}

		for _, t := range c.tickers {
			for !t.stopped && !t.next.After(c.now) {
				select {
				case t.ch <- t.next:
				default:
				}
				t.next = t.next.Add(t.period)
			}
		}
		c.mu.Unlock()

		due.fn()
	}
}

type mockTimer struct {
	clock *MockClock
	when  time.Time
	fn    func()
}

// Stop cancela o callback se ainda não tiver disparado
func (t *mockTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

type mockTicker struct {
	clock   *MockClock
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *mockTicker) C() <-chan time.Time { return t.ch }

func (t *mockTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}
