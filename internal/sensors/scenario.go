package sensors

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roadsense/autobrake/internal/models"
)

// Scenario is a scripted drive: a list of timed sensor readings played
// back by the agent. Scenarios are described in YAML, for example:
//
//	name: approach-and-brake
//	loop: false
//	steps:
//	  - after: 100ms
//	    speed_update: { velocity_mps: 20 }
//	  - after: 500ms
//	    car_detected: { distance_m: 80, velocity_mps: 15 }
//	  - after: 200ms
//	    speed_limit: { speed_limit_mps: 15 }
type Scenario struct {
	Name  string `yaml:"name"`
	Loop  bool   `yaml:"loop"`
	Steps []Step `yaml:"steps"`
}

// Step emits exactly one sensor reading after the given delay relative
// to the previous step.
type Step struct {
	After       time.Duration `yaml:"after"`
	SpeedUpdate *SpeedReading `yaml:"speed_update,omitempty"`
	CarDetected *RadarReading `yaml:"car_detected,omitempty"`
	SpeedLimit  *LimitReading `yaml:"speed_limit,omitempty"`
}

type SpeedReading struct {
	VelocityMPS float64 `yaml:"velocity_mps"`
}

type RadarReading struct {
	DistanceM   float64 `yaml:"distance_m"`
	VelocityMPS float64 `yaml:"velocity_mps"`
}

type LimitReading struct {
	SpeedLimitMPS uint16 `yaml:"speed_limit_mps"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return &scn, nil
}

// Validate checks that every step carries exactly one reading.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		n := 0
		if step.SpeedUpdate != nil {
			n++
		}
		if step.CarDetected != nil {
			n++
		}
		if step.SpeedLimit != nil {
			n++
		}
		if n != 1 {
			return fmt.Errorf("scenario %q step %d: want exactly one reading, got %d", s.Name, i, n)
		}
		if step.After < 0 {
			return fmt.Errorf("scenario %q step %d: negative delay", s.Name, i)
		}
	}
	return nil
}

// Envelope converts the step's reading into a transport envelope.
func (st Step) Envelope(agentID string) (models.Envelope, error) {
	switch {
	case st.SpeedUpdate != nil:
		return models.NewEnvelope(agentID, models.EventSpeedUpdate,
			models.SpeedUpdate{VelocityMPS: st.SpeedUpdate.VelocityMPS})
	case st.CarDetected != nil:
		return models.NewEnvelope(agentID, models.EventCarDetected,
			models.CarDetected{DistanceM: st.CarDetected.DistanceM, VelocityMPS: st.CarDetected.VelocityMPS})
	case st.SpeedLimit != nil:
		return models.NewEnvelope(agentID, models.EventSpeedLimit,
			models.SpeedLimitDetected{SpeedLimitMPS: st.SpeedLimit.SpeedLimitMPS})
	default:
		return models.Envelope{}, fmt.Errorf("step carries no reading")
	}
}
