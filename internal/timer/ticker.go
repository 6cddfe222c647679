package timer

import "time"

// Ticker delivers ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds the tick source for one run.
type TickerFunc func(period time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewTicker is the default TickerFunc, backed by time.Ticker.
func NewTicker(period time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(period)}
}
