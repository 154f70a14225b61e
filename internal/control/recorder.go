package control

import "github.com/roadsense/autobrake/internal/models"

// Recorder is an in-memory ServiceBus for tests. It keeps a single
// handler slot per event type (a later subscription overwrites the
// earlier one) and records published commands instead of delivering
// them.
type Recorder struct {
	LastCommand       models.BrakeCommand
	CommandsPublished int

	speedUpdate SpeedUpdateHandler
	carDetected CarDetectedHandler
	speedLimit  SpeedLimitHandler
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(cmd models.BrakeCommand) {
	r.CommandsPublished++
	r.LastCommand = cmd
}

func (r *Recorder) SubscribeSpeedUpdates(h SpeedUpdateHandler) { r.speedUpdate = h }
func (r *Recorder) SubscribeCarDetected(h CarDetectedHandler)  { r.carDetected = h }
func (r *Recorder) SubscribeSpeedLimits(h SpeedLimitHandler)   { r.speedLimit = h }

// SpeedUpdate invokes the subscribed speed-update handler, if any.
func (r *Recorder) SpeedUpdate(ev models.SpeedUpdate) {
	if r.speedUpdate != nil {
		r.speedUpdate(ev)
	}
}

// CarDetected invokes the subscribed radar handler, if any.
func (r *Recorder) CarDetected(ev models.CarDetected) {
	if r.carDetected != nil {
		r.carDetected(ev)
	}
}

// SpeedLimit invokes the subscribed speed-limit handler, if any.
func (r *Recorder) SpeedLimit(ev models.SpeedLimitDetected) {
	if r.speedLimit != nil {
		r.speedLimit(ev)
	}
}
