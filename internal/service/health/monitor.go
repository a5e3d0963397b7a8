package health

import (
	"fmt"
	"strconv"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
)

// Thresholds. Values exactly at the limit do not alert.
const (
	RedlineRPM        = 4000
	LowBatteryPercent = 15
)

// ChargingDestination is where the low-battery alert routes the driver.
const ChargingDestination = "nearest charging station"

// Kind labels an alert.
type Kind string

const (
	KindRedline Kind = "redline"
	KindBattery Kind = "battery"
)

// Alert is one proactive warning. Text is not yet persona-formatted.
type Alert struct {
	Kind    Kind
	Text    string
	Actions []tool.Call
}

// Evaluate checks a telemetry snapshot against the fixed thresholds. Both
// checks run on every call, so zero, one or two alerts may be returned. A
// check whose reading is missing from the snapshot stays silent. Tire
// pressure is not consulted.
func Evaluate(t vehicle.Telemetry) []Alert {
	var alerts []Alert

	if t.RPM != nil && *t.RPM > RedlineRPM {
		alerts = append(alerts, Alert{
			Kind: KindRedline,
			Text: fmt.Sprintf("engine RPM is critical at %s. Easing off the throttle is advised to protect the motor.", formatNumber(*t.RPM)),
			Actions: []tool.Call{
				tool.NewCall(tool.GetVehicleStatus, nil),
			},
		})
	}

	if t.Battery != nil && *t.Battery < LowBatteryPercent {
		alerts = append(alerts, Alert{
			Kind: KindBattery,
			Text: fmt.Sprintf("battery level is at %s%%. Routing to the nearest charging station now.", formatNumber(*t.Battery)),
			Actions: []tool.Call{
				tool.NewCall(tool.Navigate, map[string]any{"destination": ChargingDestination}),
			},
		})
	}

	return alerts
}

// formatNumber prints whole readings without a fractional part.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
