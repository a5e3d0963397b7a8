package copilot

import (
	"encoding/json"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
)

// Inbound message types.
const (
	TypePersonaSync = "persona_sync"
	TypeTranscript  = "transcript"
	TypeTelemetry   = "telemetry"
)

// Outbound message types.
const (
	TypeSystem        = "system"
	TypeSystemRequest = "system_request"
	TypeAIResponse    = "ai_response"
)

// ActionPollOBD asks the client to push a fresh telemetry snapshot.
const ActionPollOBD = "poll_obd"

// Inbound is the flat envelope of every client frame. Fields irrelevant to
// Type are left empty.
type Inbound struct {
	Type     string          `json:"type"`
	Persona  string          `json:"persona,omitempty"`
	Language string          `json:"language,omitempty"`
	Text     string          `json:"text,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Outbound is any server frame.
type Outbound interface {
	MessageType() string
}

// System announces the connection.
type System struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (System) MessageType() string { return TypeSystem }

// SystemRequest asks the client to do something on the server's behalf.
type SystemRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

func (SystemRequest) MessageType() string { return TypeSystemRequest }

// AIResponse is an assistant utterance plus tool calls for the client.
type AIResponse struct {
	Type    string      `json:"type"`
	Text    string      `json:"text"`
	Actions []tool.Call `json:"actions"`
}

func (AIResponse) MessageType() string { return TypeAIResponse }

// NewSystem builds a system notice.
func NewSystem(message string) System {
	return System{Type: TypeSystem, Message: message}
}

// NewPollRequest builds the OBD poll request.
func NewPollRequest() SystemRequest {
	return SystemRequest{Type: TypeSystemRequest, Action: ActionPollOBD}
}

// NewAIResponse builds an ai_response; actions is never encoded as null.
func NewAIResponse(text string, actions ...tool.Call) AIResponse {
	if actions == nil {
		actions = []tool.Call{}
	}
	return AIResponse{Type: TypeAIResponse, Text: text, Actions: actions}
}
