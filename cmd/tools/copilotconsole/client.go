package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
)

// frame is any server message, flattened.
type frame struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Action  string      `json:"action,omitempty"`
	Text    string      `json:"text,omitempty"`
	Actions []tool.Call `json:"actions,omitempty"`
}

type frameMsg frame

type telemetryMsg vehicle.Telemetry

type disconnectedMsg struct{ err error }

// client is the console's end of a co-pilot session. Writes are serialized
// because both the UI and the poll responder send.
type client struct {
	conn *websocket.Conn
	sim  *simulator

	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func dialCopilot(ctx context.Context, url string, sim *simulator) (*client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &client{conn: conn, sim: sim, done: make(chan struct{})}, nil
}

func (c *client) send(msg copilot.Inbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *client) syncPersona(persona, language string) error {
	return c.send(copilot.Inbound{Type: copilot.TypePersonaSync, Persona: persona, Language: language})
}

func (c *client) transcript(text, persona, language string) error {
	return c.send(copilot.Inbound{Type: copilot.TypeTranscript, Text: text, Persona: persona, Language: language})
}

func (c *client) pushTelemetry(t vehicle.Telemetry) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}
	return c.send(copilot.Inbound{Type: copilot.TypeTelemetry, Data: data})
}

// readLoop forwards server frames to out and answers OBD polls itself. It
// closes out when the connection drops or the client is closed, so a
// consumer that stopped reading never strands it.
func (c *client) readLoop(out chan<- tea.Msg) {
	defer close(out)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.deliver(out, disconnectedMsg{err: err})
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		if f.Type == copilot.TypeSystemRequest && f.Action == copilot.ActionPollOBD {
			reading := c.sim.Next()
			if err := c.pushTelemetry(reading); err != nil {
				c.deliver(out, disconnectedMsg{err: err})
				return
			}
			if !c.deliver(out, telemetryMsg(reading)) {
				return
			}
			continue
		}
		if !c.deliver(out, frameMsg(f)) {
			return
		}
	}
}

// deliver hands msg to out unless the client has been closed.
func (c *client) deliver(out chan<- tea.Msg, msg tea.Msg) bool {
	select {
	case out <- msg:
		return true
	case <-c.done:
		return false
	}
}

func (c *client) close() error {
	c.closeOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	return c.conn.Close()
}

func waitFrame(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
