// Package brake implements the collision-avoidance controller. It
// subscribes to speedometer, radar and sign-recognition events on a
// service bus and publishes brake commands according to policy.
package brake

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/roadsense/autobrake/internal/control"
	"github.com/roadsense/autobrake/internal/models"
)

const (
	// DefaultCollisionThresholdS is the sensitivity a fresh controller
	// starts with: brake when time to collision drops to five seconds.
	DefaultCollisionThresholdS = 5.0

	// MinCollisionThresholdS is the lowest sensitivity a caller may
	// configure.
	MinCollisionThresholdS = 1.0

	// InitialSpeedLimitMPS is assumed until the first posted limit is
	// observed.
	InitialSpeedLimitMPS uint16 = 39
)

// ErrThresholdTooLow is returned by SetCollisionThreshold for values
// below MinCollisionThresholdS.
var ErrThresholdTooLow = errors.New("collision threshold below 1 second")

// AutoBrake reacts to sensor events and publishes brake commands. It
// borrows the bus it is constructed with; the caller keeps the bus
// alive for the controller's lifetime.
//
// The three handlers are the complete transition function: there are no
// discrete modes and no braking latch. Each command is a stateless
// emission.
type AutoBrake struct {
	bus control.ServiceBus

	mu                  sync.RWMutex
	collisionThresholdS float64
	speedMPS            float64
	lastKnownSpeedLimit uint16
}

// New constructs a controller bound to bus and registers its handlers.
func New(bus control.ServiceBus) *AutoBrake {
	b := &AutoBrake{
		bus:                 bus,
		collisionThresholdS: DefaultCollisionThresholdS,
		lastKnownSpeedLimit: InitialSpeedLimitMPS,
	}
	bus.SubscribeSpeedUpdates(b.handleSpeedUpdate)
	bus.SubscribeCarDetected(b.handleCarDetected)
	bus.SubscribeSpeedLimits(b.handleSpeedLimit)
	return b
}

// handleSpeedUpdate records the vehicle's speed. A reading above the
// last known limit is treated purely as a braking trigger: the command
// goes out with zero time to collision and the stored speed is left
// untouched, so the controller never remembers an over-limit speed.
func (b *AutoBrake) handleSpeedUpdate(ev models.SpeedUpdate) {
	b.mu.Lock()
	if ev.VelocityMPS > float64(b.lastKnownSpeedLimit) {
		b.mu.Unlock()
		b.publish(models.BrakeCommand{TimeToCollisionS: 0})
		return
	}
	b.speedMPS = ev.VelocityMPS
	b.mu.Unlock()
}

// handleCarDetected estimates time to collision from the detection
// distance and the vehicle's own last known speed. The detected car's
// velocity is not used. At zero speed the IEEE quotient is +Inf (or NaN
// for a zero distance), which fails the threshold window and suppresses
// the command; there is no division trap to guard against.
func (b *AutoBrake) handleCarDetected(ev models.CarDetected) {
	b.mu.RLock()
	speed := b.speedMPS
	threshold := b.collisionThresholdS
	b.mu.RUnlock()

	ttc := ev.DistanceM / speed
	if ttc > 0 && ttc <= threshold {
		b.publish(models.BrakeCommand{TimeToCollisionS: ttc})
	}
}

// handleSpeedLimit stores the newly posted limit, then brakes if the
// last recorded speed already exceeds it. A repeated identical limit
// re-checks the same condition and publishes again while it holds.
func (b *AutoBrake) handleSpeedLimit(ev models.SpeedLimitDetected) {
	b.mu.Lock()
	b.lastKnownSpeedLimit = ev.SpeedLimitMPS
	overspeed := b.speedMPS > float64(b.lastKnownSpeedLimit)
	b.mu.Unlock()

	if overspeed {
		b.publish(models.BrakeCommand{TimeToCollisionS: 0})
	}
}

func (b *AutoBrake) publish(cmd models.BrakeCommand) {
	log.Debug().Float64("time_to_collision_s", cmd.TimeToCollisionS).Msg("publishing brake command")
	b.bus.Publish(cmd)
}

// SetCollisionThreshold adjusts the controller sensitivity. Values
// below MinCollisionThresholdS fail with ErrThresholdTooLow and leave
// the state unchanged.
func (b *AutoBrake) SetCollisionThreshold(x float64) error {
	if x < MinCollisionThresholdS {
		return ErrThresholdTooLow
	}
	b.mu.Lock()
	b.collisionThresholdS = x
	b.mu.Unlock()
	return nil
}

// CollisionThreshold returns the current sensitivity in seconds.
func (b *AutoBrake) CollisionThreshold() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collisionThresholdS
}

// Speed returns the last recorded own speed in m/s.
func (b *AutoBrake) Speed() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.speedMPS
}

// LastKnownSpeedLimit returns the most recently observed posted limit.
func (b *AutoBrake) LastKnownSpeedLimit() uint16 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastKnownSpeedLimit
}

// Snapshot returns a consistent view of the controller state.
func (b *AutoBrake) Snapshot() models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.Snapshot{
		SpeedMPS:            b.speedMPS,
		CollisionThresholdS: b.collisionThresholdS,
		SpeedLimitMPS:       b.lastKnownSpeedLimit,
	}
}
