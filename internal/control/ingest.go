package control

import (
	"encoding/json"
	"fmt"

	"github.com/roadsense/autobrake/internal/models"
)

// Republish decodes a transported envelope and publishes the event on
// the dispatcher. Heartbeats carry no bus traffic and are accepted as
// no-ops. Unknown event types are rejected.
func Republish(d *Dispatcher, env models.Envelope) error {
	switch env.Type {
	case models.EventSpeedUpdate:
		var ev models.SpeedUpdate
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		d.PublishSpeedUpdate(ev)
	case models.EventCarDetected:
		var ev models.CarDetected
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		d.PublishCarDetected(ev)
	case models.EventSpeedLimit:
		var ev models.SpeedLimitDetected
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		d.PublishSpeedLimit(ev)
	case models.EventHeartbeat:
		// Liveness only; logged and stored by the caller.
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
	return nil
}
