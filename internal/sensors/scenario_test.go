package sensors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsense/autobrake/internal/models"
)

const sampleScenario = `
name: approach-and-brake
loop: false
steps:
  - after: 100ms
    speed_update: { velocity_mps: 20 }
  - after: 500ms
    car_detected: { distance_m: 80, velocity_mps: 15 }
  - after: 200ms
    speed_limit: { speed_limit_mps: 15 }
`

func TestParseScenario(t *testing.T) {
	scn, err := Parse([]byte(sampleScenario))
	require.NoError(t, err)

	want := &Scenario{
		Name: "approach-and-brake",
		Steps: []Step{
			{After: 100 * time.Millisecond, SpeedUpdate: &SpeedReading{VelocityMPS: 20}},
			{After: 500 * time.Millisecond, CarDetected: &RadarReading{DistanceM: 80, VelocityMPS: 15}},
			{After: 200 * time.Millisecond, SpeedLimit: &LimitReading{SpeedLimitMPS: 15}},
		},
	}
	if diff := cmp.Diff(want, scn); diff != "" {
		t.Errorf("scenario mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidScenarios(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no steps", "name: empty\nsteps: []"},
		{"step without reading", "name: bad\nsteps:\n  - after: 1s"},
		{"step with two readings", `
name: bad
steps:
  - after: 1s
    speed_update: { velocity_mps: 1 }
    speed_limit: { speed_limit_mps: 2 }
`},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScenario), 0o644))

	scn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "approach-and-brake", scn.Name)
	assert.Len(t, scn.Steps, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStepEnvelope(t *testing.T) {
	step := Step{SpeedLimit: &LimitReading{SpeedLimitMPS: 25}}

	env, err := step.Envelope("vehicle-1")
	require.NoError(t, err)
	assert.Equal(t, "vehicle-1", env.AgentID)
	assert.Equal(t, models.EventSpeedLimit, env.Type)

	var payload models.SpeedLimitDetected
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, uint16(25), payload.SpeedLimitMPS)
}
