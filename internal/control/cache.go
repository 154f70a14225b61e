package control

import (
	"sync"
	"time"

	"github.com/roadsense/autobrake/internal/models"
)

// SnapshotSource exposes the controller's current state.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Broadcaster pushes status events to live subscribers.
type Broadcaster interface {
	Broadcast(models.StatusEvent)
}

// StatusCache tracks the latest controller state and the last published
// brake command, and forwards a status event to the broadcaster on
// every bus activity. It is the read side behind /api/status and the
// live stream.
type StatusCache struct {
	agentID     string
	source      SnapshotSource
	broadcaster Broadcaster

	mu          sync.RWMutex
	lastCommand *models.BrakeCommand
	lastSeen    time.Time
}

func NewStatusCache(agentID string, source SnapshotSource, broadcaster Broadcaster) *StatusCache {
	return &StatusCache{
		agentID:     agentID,
		source:      source,
		broadcaster: broadcaster,
	}
}

// Attach subscribes the cache to every channel of the dispatcher. The
// brake-command subscription must be registered after the controller's
// own handlers so the snapshot reflects the transition that produced
// the command.
func (c *StatusCache) Attach(d *Dispatcher) {
	d.SubscribeSpeedUpdates(func(models.SpeedUpdate) { c.touch(nil) })
	d.SubscribeCarDetected(func(models.CarDetected) { c.touch(nil) })
	d.SubscribeSpeedLimits(func(models.SpeedLimitDetected) { c.touch(nil) })
	d.SubscribeBrakeCommands(func(cmd models.BrakeCommand) { c.touch(&cmd) })
}

func (c *StatusCache) touch(cmd *models.BrakeCommand) {
	c.mu.Lock()
	if cmd != nil {
		c.lastCommand = cmd
	}
	c.lastSeen = time.Now().UTC()
	event := c.statusLocked()
	c.mu.Unlock()

	if c.broadcaster != nil {
		c.broadcaster.Broadcast(event)
	}
}

func (c *StatusCache) statusLocked() models.StatusEvent {
	return models.StatusEvent{
		AgentID:     c.agentID,
		Snapshot:    c.source.Snapshot(),
		LastCommand: c.lastCommand,
		Time:        c.lastSeen,
	}
}

// Status returns the current controller state with the last command.
func (c *StatusCache) Status() models.StatusEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusLocked()
}

// LastCommand returns the most recently published command, or nil if
// none has been published yet.
func (c *StatusCache) LastCommand() *models.BrakeCommand {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCommand
}
