package vehicle

// TirePressure holds per-wheel pressure in PSI.
type TirePressure struct {
	FL float64 `json:"fl"`
	FR float64 `json:"fr"`
	RL float64 `json:"rl"`
	RR float64 `json:"rr"`
}

// Telemetry is a point-in-time sensor reading pushed by the client. The
// client stays authoritative; the server only evaluates it. RPM and Battery
// are nil when the client left them out.
type Telemetry struct {
	RPM          *float64      `json:"rpm,omitempty"`
	Battery      *float64      `json:"battery,omitempty"`
	Speed        float64       `json:"speed,omitempty"`
	TirePressure *TirePressure `json:"tirePressure,omitempty"`
}

// Reading returns a pointer to v for building snapshots.
func Reading(v float64) *float64 { return &v }

// Value returns *v, or 0 when the reading is missing.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
