package obd

import (
	"time"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
)

// DefaultInterval is how often the client is asked for telemetry.
const DefaultInterval = 2 * time.Second

// Poller paces poll_obd requests. The loop carries no telemetry itself; the
// client answers each request with a telemetry frame. Not safe for
// concurrent use.
type Poller struct {
	clock    clock.Clock
	interval time.Duration
	ticker   clock.Ticker
}

// NewPoller creates a stopped poller.
func NewPoller(clk clock.Clock, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{clock: clk, interval: interval}
}

// Start begins polling, cancelling a previous run first.
func (p *Poller) Start() {
	p.Stop()
	p.ticker = p.clock.NewTicker(p.interval)
}

// Stop cancels polling.
func (p *Poller) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

// C is the tick channel, nil when stopped.
func (p *Poller) C() <-chan time.Time {
	if p.ticker == nil {
		return nil
	}
	return p.ticker.C()
}

// Running reports whether a ticker is live.
func (p *Poller) Running() bool { return p.ticker != nil }

// Request is the frame sent on every tick.
func (p *Poller) Request() copilot.SystemRequest {
	return copilot.NewPollRequest()
}
