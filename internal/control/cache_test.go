package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsense/autobrake/internal/models"
)

type fakeSource struct {
	snap models.Snapshot
}

func (f *fakeSource) Snapshot() models.Snapshot { return f.snap }

type fakeBroadcaster struct {
	events []models.StatusEvent
}

func (f *fakeBroadcaster) Broadcast(ev models.StatusEvent) { f.events = append(f.events, ev) }

func TestStatusCacheTracksLastCommand(t *testing.T) {
	d := NewDispatcher()
	src := &fakeSource{snap: models.Snapshot{SpeedMPS: 20, CollisionThresholdS: 5, SpeedLimitMPS: 39}}
	sink := &fakeBroadcaster{}

	cache := NewStatusCache("vehicle-1", src, sink)
	cache.Attach(d)

	require.Nil(t, cache.LastCommand())

	d.PublishSpeedUpdate(models.SpeedUpdate{VelocityMPS: 20})
	d.Publish(models.BrakeCommand{TimeToCollisionS: 3})

	cmd := cache.LastCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, 3.0, cmd.TimeToCollisionS)

	status := cache.Status()
	assert.Equal(t, "vehicle-1", status.AgentID)
	assert.Equal(t, src.snap, status.Snapshot)
	assert.Equal(t, cmd, status.LastCommand)
}

func TestStatusCacheBroadcastsOnActivity(t *testing.T) {
	d := NewDispatcher()
	src := &fakeSource{}
	sink := &fakeBroadcaster{}

	cache := NewStatusCache("vehicle-1", src, sink)
	cache.Attach(d)

	d.PublishSpeedUpdate(models.SpeedUpdate{VelocityMPS: 5})
	d.PublishSpeedLimit(models.SpeedLimitDetected{SpeedLimitMPS: 30})
	d.Publish(models.BrakeCommand{TimeToCollisionS: 1})

	require.Len(t, sink.events, 3)
	assert.Nil(t, sink.events[0].LastCommand)
	require.NotNil(t, sink.events[2].LastCommand)
	assert.Equal(t, 1.0, sink.events[2].LastCommand.TimeToCollisionS)
}

func TestStatusCacheWithoutBroadcaster(t *testing.T) {
	d := NewDispatcher()
	cache := NewStatusCache("vehicle-1", &fakeSource{}, nil)
	cache.Attach(d)

	require.NotPanics(t, func() {
		d.Publish(models.BrakeCommand{TimeToCollisionS: 1})
	})
}
