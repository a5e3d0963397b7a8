package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
)

func snapshot(rpm, battery float64) vehicle.Telemetry {
	return vehicle.Telemetry{RPM: vehicle.Reading(rpm), Battery: vehicle.Reading(battery)}
}

func TestEvaluateNormalTelemetry(t *testing.T) {
	for _, tc := range []struct{ rpm, battery float64 }{
		{2500, 72},
		{0, 100},
		{4000, 15},
		{3999.9, 15.1},
	} {
		assert.Empty(t, Evaluate(snapshot(tc.rpm, tc.battery)), "rpm=%v battery=%v", tc.rpm, tc.battery)
	}
}

func TestEvaluateRedline(t *testing.T) {
	alerts := Evaluate(snapshot(4500, 72))
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, KindRedline, alert.Kind)
	assert.Contains(t, alert.Text, "critical at 4500.")
	require.Len(t, alert.Actions, 1)
	assert.Equal(t, tool.GetVehicleStatus, alert.Actions[0].Tool)
}

func TestEvaluateLowBattery(t *testing.T) {
	alerts := Evaluate(snapshot(2500, 8))
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, KindBattery, alert.Kind)
	assert.Contains(t, alert.Text, "battery level is at 8%.")
	require.Len(t, alert.Actions, 1)
	assert.Equal(t, tool.Navigate, alert.Actions[0].Tool)

	dest, ok := alert.Actions[0].StringArg("destination")
	require.True(t, ok)
	assert.Equal(t, ChargingDestination, dest)
}

func TestEvaluateBothAlerts(t *testing.T) {
	alerts := Evaluate(snapshot(6000, 5))
	require.Len(t, alerts, 2)
	assert.Equal(t, KindRedline, alerts[0].Kind)
	assert.Equal(t, KindBattery, alerts[1].Kind)
}

func TestEvaluateIgnoresTirePressure(t *testing.T) {
	alerts := Evaluate(vehicle.Telemetry{
		RPM:          vehicle.Reading(1200),
		Battery:      vehicle.Reading(60),
		TirePressure: &vehicle.TirePressure{FL: 32, FR: 32, RL: 12, RR: 32},
	})
	assert.Empty(t, alerts)
}

func TestEvaluateKeepsFractionalReadings(t *testing.T) {
	alerts := Evaluate(snapshot(4100.5, 14.5))
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0].Text, "4100.5")
	assert.Contains(t, alerts[1].Text, "14.5%")
}

func TestEvaluateSkipsMissingReadings(t *testing.T) {
	assert.Empty(t, Evaluate(vehicle.Telemetry{}))
	assert.Empty(t, Evaluate(vehicle.Telemetry{RPM: vehicle.Reading(900)}))

	alerts := Evaluate(vehicle.Telemetry{Battery: vehicle.Reading(9)})
	require.Len(t, alerts, 1)
	assert.Equal(t, KindBattery, alerts[0].Kind)

	alerts = Evaluate(vehicle.Telemetry{RPM: vehicle.Reading(4800)})
	require.Len(t, alerts, 1)
	assert.Equal(t, KindRedline, alerts[0].Kind)
}
