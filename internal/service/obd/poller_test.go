package obd

import (
	"testing"
	"time"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
)

func TestPollerRestartCancelsPrevious(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	p := NewPoller(clk, DefaultInterval)

	p.Start()
	first := p.C()
	p.Start()

	if clk.Active() != 1 {
		t.Fatalf("expected exactly one live ticker, got %d", clk.Active())
	}

	clk.Advance(DefaultInterval)
	select {
	case <-first:
		t.Fatal("cancelled ticker delivered a tick")
	default:
	}
	select {
	case <-p.C():
	default:
		t.Fatal("expected the new ticker to fire")
	}
}

func TestPollerStop(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	p := NewPoller(clk, 0)
	p.Start()
	p.Stop()

	if p.Running() || p.C() != nil {
		t.Fatal("expected poller to be stopped")
	}
	if clk.Active() != 0 {
		t.Fatalf("expected no live tickers, got %d", clk.Active())
	}
}

func TestPollerRequest(t *testing.T) {
	req := NewPoller(clock.Real(), 0).Request()
	if req.Type != copilot.TypeSystemRequest || req.Action != copilot.ActionPollOBD {
		t.Fatalf("unexpected request: %+v", req)
	}
}
