package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsense/autobrake/internal/models"
)

type channelReporter struct {
	envelopes chan models.Envelope
}

func newChannelReporter() *channelReporter {
	return &channelReporter{envelopes: make(chan models.Envelope, 32)}
}

func (r *channelReporter) Report(ctx context.Context, env models.Envelope) error {
	r.envelopes <- env
	return nil
}

func collect(t *testing.T, r *channelReporter, n int) []models.Envelope {
	t.Helper()
	var got []models.Envelope
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case env := <-r.envelopes:
			got = append(got, env)
		case <-deadline:
			t.Fatalf("timed out after %d of %d envelopes", len(got), n)
		}
	}
	return got
}

func TestAgentPlaysScenarioInOrder(t *testing.T) {
	reporter := newChannelReporter()
	agent := New(reporter, "vehicle-1", time.Hour)
	agent.SetScenario(&Scenario{
		Name: "short-drive",
		Steps: []Step{
			{After: time.Millisecond, SpeedUpdate: &SpeedReading{VelocityMPS: 10}},
			{After: time.Millisecond, CarDetected: &RadarReading{DistanceM: 50}},
			{After: time.Millisecond, SpeedLimit: &LimitReading{SpeedLimitMPS: 20}},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = agent.Run(ctx)
		close(done)
	}()

	got := collect(t, reporter, 3)
	cancel()
	<-done

	types := []string{got[0].Type, got[1].Type, got[2].Type}
	assert.Equal(t, []string{
		models.EventSpeedUpdate,
		models.EventCarDetected,
		models.EventSpeedLimit,
	}, types)
	for _, env := range got {
		assert.Equal(t, "vehicle-1", env.AgentID)
	}
}

func TestAgentLoopsScenario(t *testing.T) {
	reporter := newChannelReporter()
	agent := New(reporter, "vehicle-1", time.Hour)
	agent.SetScenario(&Scenario{
		Name: "loop",
		Loop: true,
		Steps: []Step{
			{After: time.Millisecond, SpeedUpdate: &SpeedReading{VelocityMPS: 5}},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = agent.Run(ctx)
		close(done)
	}()

	got := collect(t, reporter, 3)
	cancel()
	<-done

	for _, env := range got {
		assert.Equal(t, models.EventSpeedUpdate, env.Type)
	}
}

func TestAgentRestartsOnScenarioSwap(t *testing.T) {
	reporter := newChannelReporter()
	agent := New(reporter, "vehicle-1", time.Hour)
	agent.SetScenario(&Scenario{
		Name: "first",
		Loop: true,
		Steps: []Step{
			{After: time.Millisecond, SpeedUpdate: &SpeedReading{VelocityMPS: 1}},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = agent.Run(ctx)
		close(done)
	}()

	collect(t, reporter, 1)

	agent.SetScenario(&Scenario{
		Name: "second",
		Loop: true,
		Steps: []Step{
			{After: time.Millisecond, SpeedLimit: &LimitReading{SpeedLimitMPS: 9}},
		},
	})

	// Drain until the swapped scenario's events show up.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case env := <-reporter.envelopes:
			if env.Type == models.EventSpeedLimit {
				cancel()
				<-done
				return
			}
		case <-deadline:
			t.Fatal("never saw events from the swapped scenario")
		}
	}
}

func TestAgentSendsHeartbeats(t *testing.T) {
	reporter := newChannelReporter()
	agent := New(reporter, "vehicle-1", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = agent.Run(ctx)
		close(done)
	}()

	got := collect(t, reporter, 1)
	cancel()
	<-done

	require.Equal(t, models.EventHeartbeat, got[0].Type)
	assert.Equal(t, "vehicle-1", got[0].AgentID)
}
