package control

import (
	"sync"

	"github.com/roadsense/autobrake/internal/models"
)

// Handler signatures for each event channel.
type (
	SpeedUpdateHandler  func(models.SpeedUpdate)
	CarDetectedHandler  func(models.CarDetected)
	SpeedLimitHandler   func(models.SpeedLimitDetected)
	BrakeCommandHandler func(models.BrakeCommand)
)

// ServiceBus decouples the brake controller from its transport. Publish
// delivers a brake command to whoever listens for commands; the three
// Subscribe methods register handlers for the inbound sensor channels.
//
// Dispatch is synchronous: a handler runs to completion on the
// publisher's goroutine, including any re-entrant publish it triggers.
type ServiceBus interface {
	Publish(models.BrakeCommand)
	SubscribeSpeedUpdates(SpeedUpdateHandler)
	SubscribeCarDetected(CarDetectedHandler)
	SubscribeSpeedLimits(SpeedLimitHandler)
}

// Dispatcher is the production ServiceBus: multiple handlers per event
// type, fan-out in subscription order, in-line on the caller.
type Dispatcher struct {
	mu            sync.RWMutex
	speedUpdates  []SpeedUpdateHandler
	carDetected   []CarDetectedHandler
	speedLimits   []SpeedLimitHandler
	brakeCommands []BrakeCommandHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) SubscribeSpeedUpdates(h SpeedUpdateHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speedUpdates = append(d.speedUpdates, h)
}

func (d *Dispatcher) SubscribeCarDetected(h CarDetectedHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.carDetected = append(d.carDetected, h)
}

func (d *Dispatcher) SubscribeSpeedLimits(h SpeedLimitHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speedLimits = append(d.speedLimits, h)
}

// SubscribeBrakeCommands registers a consumer of published commands
// (actuator, store, dashboard feed). The controller itself never
// subscribes here, so command fan-out cannot recurse into the handlers
// above.
func (d *Dispatcher) SubscribeBrakeCommands(h BrakeCommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brakeCommands = append(d.brakeCommands, h)
}

// Publish delivers cmd to all brake-command subscribers.
func (d *Dispatcher) Publish(cmd models.BrakeCommand) {
	d.mu.RLock()
	handlers := d.brakeCommands
	d.mu.RUnlock()
	for _, h := range handlers {
		h(cmd)
	}
}

// PublishSpeedUpdate delivers a speedometer reading to all subscribers.
func (d *Dispatcher) PublishSpeedUpdate(ev models.SpeedUpdate) {
	d.mu.RLock()
	handlers := d.speedUpdates
	d.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// PublishCarDetected delivers a radar detection to all subscribers.
func (d *Dispatcher) PublishCarDetected(ev models.CarDetected) {
	d.mu.RLock()
	handlers := d.carDetected
	d.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// PublishSpeedLimit delivers a recognized speed limit to all subscribers.
func (d *Dispatcher) PublishSpeedLimit(ev models.SpeedLimitDetected) {
	d.mu.RLock()
	handlers := d.speedLimits
	d.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}
