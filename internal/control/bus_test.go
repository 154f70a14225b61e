package control

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsense/autobrake/internal/models"
)

func TestDispatcherFansOutInSubscriptionOrder(t *testing.T) {
	d := NewDispatcher()

	var got []string
	d.SubscribeSpeedUpdates(func(ev models.SpeedUpdate) {
		got = append(got, "first")
	})
	d.SubscribeSpeedUpdates(func(ev models.SpeedUpdate) {
		got = append(got, "second")
	})

	d.PublishSpeedUpdate(models.SpeedUpdate{VelocityMPS: 10})

	if diff := cmp.Diff([]string{"first", "second"}, got); diff != "" {
		t.Errorf("handler order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherDeliversPayloads(t *testing.T) {
	d := NewDispatcher()

	var (
		gotCar   models.CarDetected
		gotLimit models.SpeedLimitDetected
		gotCmd   models.BrakeCommand
	)
	d.SubscribeCarDetected(func(ev models.CarDetected) { gotCar = ev })
	d.SubscribeSpeedLimits(func(ev models.SpeedLimitDetected) { gotLimit = ev })
	d.SubscribeBrakeCommands(func(cmd models.BrakeCommand) { gotCmd = cmd })

	d.PublishCarDetected(models.CarDetected{DistanceM: 42, VelocityMPS: 7})
	d.PublishSpeedLimit(models.SpeedLimitDetected{SpeedLimitMPS: 30})
	d.Publish(models.BrakeCommand{TimeToCollisionS: 2.5})

	assert.Equal(t, models.CarDetected{DistanceM: 42, VelocityMPS: 7}, gotCar)
	assert.Equal(t, models.SpeedLimitDetected{SpeedLimitMPS: 30}, gotLimit)
	assert.Equal(t, models.BrakeCommand{TimeToCollisionS: 2.5}, gotCmd)
}

func TestDispatcherPublishWithoutSubscribers(t *testing.T) {
	d := NewDispatcher()

	require.NotPanics(t, func() {
		d.Publish(models.BrakeCommand{TimeToCollisionS: 1})
		d.PublishSpeedUpdate(models.SpeedUpdate{VelocityMPS: 1})
		d.PublishCarDetected(models.CarDetected{})
		d.PublishSpeedLimit(models.SpeedLimitDetected{})
	})
}

func TestDispatcherSynchronousReentrantPublish(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.SubscribeBrakeCommands(func(cmd models.BrakeCommand) {
		order = append(order, "command")
	})
	d.SubscribeSpeedUpdates(func(ev models.SpeedUpdate) {
		order = append(order, "update-begin")
		d.Publish(models.BrakeCommand{TimeToCollisionS: 0})
		order = append(order, "update-end")
	})

	d.PublishSpeedUpdate(models.SpeedUpdate{VelocityMPS: 5})

	// The re-entrant publish runs to completion inside the outer
	// handler invocation.
	want := []string{"update-begin", "command", "update-end"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorderKeepsSingleHandlerSlot(t *testing.T) {
	r := NewRecorder()

	var calls []int
	r.SubscribeSpeedUpdates(func(ev models.SpeedUpdate) { calls = append(calls, 1) })
	r.SubscribeSpeedUpdates(func(ev models.SpeedUpdate) { calls = append(calls, 2) })

	r.SpeedUpdate(models.SpeedUpdate{VelocityMPS: 3})

	assert.Equal(t, []int{2}, calls, "later subscription overwrites the slot")
}

func TestRecorderCountsCommands(t *testing.T) {
	r := NewRecorder()

	r.Publish(models.BrakeCommand{TimeToCollisionS: 4})
	r.Publish(models.BrakeCommand{TimeToCollisionS: 1})

	assert.Equal(t, 2, r.CommandsPublished)
	assert.Equal(t, models.BrakeCommand{TimeToCollisionS: 1}, r.LastCommand)
}

func TestRecorderTriggersWithoutHandlers(t *testing.T) {
	r := NewRecorder()

	require.NotPanics(t, func() {
		r.SpeedUpdate(models.SpeedUpdate{})
		r.CarDetected(models.CarDetected{})
		r.SpeedLimit(models.SpeedLimitDetected{})
	})
}
