package tool

import (
	"encoding/json"
	"testing"
)

func TestNewCallMarshalsEmptyArgsAsObject(t *testing.T) {
	data, err := json.Marshal(NewCall(GetVehicleStatus, nil))
	if err != nil {
		t.Fatalf("Marshal err: %v", err)
	}
	if got := string(data); got != `{"tool":"get_vehicle_status","args":{}}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestKnownToleratesUnknownNames(t *testing.T) {
	if !Known(Navigate) || !Known(NavUpdate) {
		t.Fatal("expected built-in tools to be known")
	}
	if Known("open_trunk") {
		t.Fatal("expected open_trunk to be unknown")
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	calls := []Call{
		NewCall(ControlCar, map[string]any{"feature": "ac", "action": "on"}),
		NewCall(Navigate, map[string]any{"destination": "home"}),
		NewCall(Navigate, map[string]any{"destination": "work"}),
	}

	call, ok := Find(calls, Navigate)
	if !ok {
		t.Fatal("expected navigate call")
	}
	if dest, _ := call.StringArg("destination"); dest != "home" {
		t.Fatalf("expected first destination home, got %q", dest)
	}

	if _, ok := Find(calls, CallContact); ok {
		t.Fatal("did not expect call_contact")
	}
}

func TestDefinitionsCoverModelTools(t *testing.T) {
	defs := Definitions()
	if len(defs) != 5 {
		t.Fatalf("expected 5 definitions, got %d", len(defs))
	}
	for _, def := range defs {
		if def.Name == NavUpdate {
			t.Fatal("nav_update must not be offered to the model")
		}
		if !Known(def.Name) {
			t.Fatalf("definition %s not in vocabulary", def.Name)
		}
	}
}
