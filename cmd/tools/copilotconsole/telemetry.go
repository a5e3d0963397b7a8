package main

import (
	"math"
	"math/rand/v2"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
)

// simulator fakes the car side of the OBD poll. Readings drift a little on
// every call so the health monitor has something to look at.
type simulator struct {
	rng       *rand.Rand
	rpm       float64
	battery   float64
	speed     float64
	drainRate float64
	pinned    bool
}

func newSimulator(seed uint64) *simulator {
	return &simulator{
		rng:       rand.New(rand.NewPCG(seed, seed^0x5eed)),
		rpm:       1800,
		battery:   82,
		speed:     45,
		drainRate: 0.4,
	}
}

// Next advances the simulation by one poll.
func (s *simulator) Next() vehicle.Telemetry {
	if s.pinned {
		s.pinned = false
	} else {
		s.rpm = clamp(s.rpm+s.jitter(250), 700, 6000)
		s.speed = clamp(s.speed+s.jitter(6), 0, 130)
		s.battery = clamp(s.battery-s.drainRate*s.rng.Float64(), 0, 100)
	}

	return vehicle.Telemetry{
		RPM:     vehicle.Reading(math.Round(s.rpm)),
		Battery: vehicle.Reading(math.Round(s.battery)),
		Speed:   math.Round(s.speed),
		TirePressure: &vehicle.TirePressure{
			FL: 32 + s.rng.Float64(),
			FR: 32 + s.rng.Float64(),
			RL: 30,
			RR: 32 + s.rng.Float64(),
		},
	}
}

// Force pins rpm and battery for the next reading so alert paths can be
// triggered by hand. Negative values keep the current reading.
func (s *simulator) Force(rpm, battery float64) {
	if rpm >= 0 {
		s.rpm = rpm
	}
	if battery >= 0 {
		s.battery = battery
	}
	s.pinned = true
}

func (s *simulator) jitter(span float64) float64 {
	return (s.rng.Float64()*2 - 1) * span
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
