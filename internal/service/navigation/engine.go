package navigation

import (
	"fmt"
	"time"

	"github.com/cjrunixx/VeloVoice/backend/internal/clock"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

// DefaultStepInterval paces the milestones.
const DefaultStepInterval = 12 * time.Second

// Milestone types.
const (
	TypeInfo     = "info"
	TypeTraffic  = "traffic"
	TypeGuidance = "guidance"
)

// Milestone is one scripted navigation update.
type Milestone struct {
	Type     string
	Text     string
	NextTurn string
}

// Script returns the fixed demo route to destination.
func Script(destination string) []Milestone {
	return []Milestone{
		{Type: TypeInfo, Text: fmt.Sprintf("Routing to %s complete. ETA: 14 mins.", destination)},
		{Type: TypeTraffic, Text: "Alert: Heavy traffic ahead in 500 meters. Expected delay 4 minutes."},
		{Type: TypeGuidance, Text: "In 10 meters, take a sharp left turn toward the city center.", NextTurn: "Left in 10m"},
		{Type: TypeInfo, Text: "You have arrived at your destination."},
	}
}

// Call wraps the milestone in a nav_update tool call. nextTurn is null for
// every milestone that does not carry one.
func (m Milestone) Call() tool.Call {
	var nextTurn any
	if m.NextTurn != "" {
		nextTurn = m.NextTurn
	}
	return tool.NewCall(tool.NavUpdate, map[string]any{
		"type":     m.Type,
		"text":     m.Text,
		"nextTurn": nextTurn,
	})
}

// Response is the ai_response pushed for the milestone.
func (m Milestone) Response() copilot.AIResponse {
	return copilot.NewAIResponse(m.Text, m.Call())
}

// Engine runs at most one milestone script at a time. It is not safe for
// concurrent use; the owning session drives it from a single goroutine.
type Engine struct {
	clock    clock.Clock
	interval time.Duration

	destination string
	script      []Milestone
	step        int
	ticker      clock.Ticker
}

// NewEngine creates an idle engine.
func NewEngine(clk clock.Clock, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	return &Engine{clock: clk, interval: interval}
}

// Start cancels any running script, resets the cursor and starts pacing a
// new route to destination.
func (e *Engine) Start(destination string) {
	e.Stop()
	e.destination = destination
	e.script = Script(destination)
	e.step = 0
	e.ticker = e.clock.NewTicker(e.interval)
}

// C is the tick channel of the running script, or nil when idle so that a
// select on it blocks forever.
func (e *Engine) C() <-chan time.Time {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.C()
}

// Tick handles one timer tick. It returns the milestone to emit and advances
// the cursor, or stops the engine and returns false once the script is
// exhausted.
func (e *Engine) Tick() (Milestone, bool) {
	if e.ticker == nil {
		return Milestone{}, false
	}
	if e.step >= len(e.script) {
		e.Stop()
		return Milestone{}, false
	}
	m := e.script[e.step]
	e.step++
	return m, true
}

// Stop cancels the running script, if any.
func (e *Engine) Stop() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

// Active reports whether a script is being paced.
func (e *Engine) Active() bool { return e.ticker != nil }

// Step is the index of the next milestone.
func (e *Engine) Step() int { return e.step }

// Destination of the current or last run.
func (e *Engine) Destination() string { return e.destination }
