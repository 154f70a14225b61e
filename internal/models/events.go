package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type tags used on the wire and in the event log.
const (
	EventSpeedUpdate  = "speed_update"
	EventCarDetected  = "car_detected"
	EventSpeedLimit   = "speed_limit_detected"
	EventBrakeCommand = "brake_command"
	EventHeartbeat    = "heartbeat"
)

// Envelope wraps a sensor event for HTTP transport and persistence.
type Envelope struct {
	AgentID string          `json:"agent_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Time    time.Time       `json:"time"`
}

// NewEnvelope marshals payload into an Envelope of the given type.
func NewEnvelope(agentID, eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		AgentID: agentID,
		Type:    eventType,
		Payload: data,
		Time:    time.Now().UTC(),
	}, nil
}

// StatusEvent is broadcast to live dashboard subscribers whenever the
// controller state changes or a command is published.
type StatusEvent struct {
	AgentID     string        `json:"agent_id"`
	Snapshot    Snapshot      `json:"snapshot"`
	LastCommand *BrakeCommand `json:"last_command,omitempty"`
	Time        time.Time     `json:"time"`
}

// Heartbeat is a periodic agent liveness report with host telemetry.
type Heartbeat struct {
	AgentID string    `json:"agent_id"`
	Host    HostInfo  `json:"host"`
	Time    time.Time `json:"time"`
}
