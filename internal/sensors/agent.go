// Package sensors simulates the vehicle's sensor suite: speedometer,
// forward radar and sign recognition. Readings come from a scripted
// drive scenario and are delivered through a Reporter.
package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/roadsense/autobrake/internal/models"
)

type Agent struct {
	reporter  Reporter
	agentID   string
	heartbeat time.Duration

	mu       sync.RWMutex
	scenario *Scenario
	reload   chan struct{}
}

func New(reporter Reporter, agentID string, heartbeat time.Duration) *Agent {
	return &Agent{
		reporter:  reporter,
		agentID:   agentID,
		heartbeat: heartbeat,
		reload:    make(chan struct{}, 1),
	}
}

// SetScenario swaps the scripted drive. A running agent restarts
// playback from the first step of the new scenario.
func (a *Agent) SetScenario(scn *Scenario) {
	a.mu.Lock()
	a.scenario = scn
	a.mu.Unlock()

	select {
	case a.reload <- struct{}{}:
	default:
	}
}

// LoadScenario reads a scenario file and installs it.
func (a *Agent) LoadScenario(path string) error {
	scn, err := Load(path)
	if err != nil {
		return err
	}
	log.Info().Str("scenario", scn.Name).Int("steps", len(scn.Steps)).Msg("scenario loaded")
	a.SetScenario(scn)
	return nil
}

func (a *Agent) currentScenario() *Scenario {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.scenario
}

// Run plays the installed scenario and sends periodic heartbeats until
// the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	// A scenario installed before Run left a stale reload signal;
	// consume it so the first step is not played twice.
	select {
	case <-a.reload:
	default:
	}

	scn := a.currentScenario()
	idx := 0
	stepsArmed := false
	arm := func() {
		if scn == nil || idx >= len(scn.Steps) {
			stepsArmed = false
			return
		}
		timer.Reset(scn.Steps[idx].After)
		stepsArmed = true
	}
	arm()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-a.reload:
			if stepsArmed && !timer.Stop() {
				<-timer.C
			}
			scn = a.currentScenario()
			idx = 0
			arm()

		case <-ticker.C:
			if err := a.sendHeartbeat(ctx); err != nil {
				log.Error().Err(err).Msg("failed to report heartbeat")
			}

		case <-timer.C:
			stepsArmed = false
			step := scn.Steps[idx]
			a.emit(ctx, step)
			idx++
			if idx >= len(scn.Steps) {
				if !scn.Loop {
					log.Info().Str("scenario", scn.Name).Msg("scenario complete")
					continue
				}
				idx = 0
			}
			arm()
		}
	}
}

func (a *Agent) emit(ctx context.Context, step Step) {
	env, err := step.Envelope(a.agentID)
	if err != nil {
		log.Error().Err(err).Msg("skipping malformed step")
		return
	}
	if err := a.reporter.Report(ctx, env); err != nil {
		log.Error().Err(err).Str("type", env.Type).Msg("failed to report event")
		return
	}
	log.Debug().Str("type", env.Type).Msg("sensor event reported")
}

func (a *Agent) sendHeartbeat(ctx context.Context) error {
	hb := models.Heartbeat{
		AgentID: a.agentID,
		Host:    collectHostInfo(),
		Time:    time.Now().UTC(),
	}
	env, err := models.NewEnvelope(a.agentID, models.EventHeartbeat, hb)
	if err != nil {
		return err
	}
	return a.reporter.Report(ctx, env)
}

func collectHostInfo() models.HostInfo {
	var info models.HostInfo

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.OS = h.OS
		info.KernelVersion = h.KernelVersion
		info.Uptime = h.Uptime
	}

	if c, err := cpu.Counts(true); err == nil {
		info.CPUCount = c
	}

	if p, err := cpu.Percent(0, false); err == nil && len(p) > 0 {
		info.CPUPercent = p[0]
	}

	if v, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotal = v.Total
		info.MemoryUsed = v.Used
		info.MemoryPercent = v.UsedPercent
	}

	if l, err := load.Avg(); err == nil {
		info.LoadAverage = l.Load1
	}

	return info
}
