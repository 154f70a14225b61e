// Package actuator is the device layer between the controller and the
// physical brake hardware. The service only ever talks to the Actuator
// interface; the simulated implementation stands in for a CAN-attached
// brake unit.
package actuator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roadsense/autobrake/internal/models"
)

// State describes the brake unit as last commanded.
type State struct {
	Engaged     bool                 `json:"engaged"`
	LastCommand *models.BrakeCommand `json:"last_command,omitempty"`
	AppliedAt   time.Time            `json:"applied_at,omitempty"`
}

// Actuator applies brake commands to the vehicle.
type Actuator interface {
	Apply(ctx context.Context, cmd models.BrakeCommand) error
	State(ctx context.Context) (State, error)
	Release(ctx context.Context) error
	Close() error
}

// Sim is an in-process Actuator used in simulation and tests.
type Sim struct {
	mu    sync.RWMutex
	state State
}

func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) Apply(ctx context.Context, cmd models.BrakeCommand) error {
	s.mu.Lock()
	s.state = State{
		Engaged:     true,
		LastCommand: &cmd,
		AppliedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()

	log.Info().Float64("time_to_collision_s", cmd.TimeToCollisionS).Msg("brake applied")
	return nil
}

func (s *Sim) State(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *Sim) Release(ctx context.Context) error {
	s.mu.Lock()
	s.state.Engaged = false
	s.mu.Unlock()
	return nil
}

func (s *Sim) Close() error { return nil }
