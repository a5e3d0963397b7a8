package tool

// Names of the tools the assistant may ask the client to execute.
const (
	Navigate         = "navigate"
	PlayMedia        = "play_media"
	ControlCar       = "control_car"
	CallContact      = "call_contact"
	GetVehicleStatus = "get_vehicle_status"

	// NavUpdate is synthesized by the navigation engine, never by the model.
	NavUpdate = "nav_update"
)

// Call is a structured instruction for the client's action dispatcher.
type Call struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// NewCall builds a call and guarantees Args marshals as an object.
func NewCall(name string, args map[string]any) Call {
	if args == nil {
		args = map[string]any{}
	}
	return Call{Tool: name, Args: args}
}

// Known reports whether name is part of the tool vocabulary. Unknown names are
// still forwarded to the client, which ignores what it does not recognize.
func Known(name string) bool {
	switch name {
	case Navigate, PlayMedia, ControlCar, CallContact, GetVehicleStatus, NavUpdate:
		return true
	default:
		return false
	}
}

// StringArg returns args[key] when it holds a string.
func (c Call) StringArg(key string) (string, bool) {
	if c.Args == nil {
		return "", false
	}
	v, ok := c.Args[key].(string)
	return v, ok
}

// Find returns the first call named name.
func Find(calls []Call, name string) (Call, bool) {
	for _, c := range calls {
		if c.Tool == name {
			return c, true
		}
	}
	return Call{}, false
}
