package models

import "time"

// SpeedUpdate reports the vehicle's own measured speed.
type SpeedUpdate struct {
	VelocityMPS float64 `json:"velocity_mps"`
}

// CarDetected reports a forward obstacle's relative distance and
// velocity at detection time.
type CarDetected struct {
	DistanceM   float64 `json:"distance_m"`
	VelocityMPS float64 `json:"velocity_mps"`
}

// SpeedLimitDetected reports a newly observed posted speed limit.
type SpeedLimitDetected struct {
	SpeedLimitMPS uint16 `json:"speed_limit_mps"`
}

// BrakeCommand requests braking. TimeToCollisionS communicates urgency;
// zero means brake immediately.
type BrakeCommand struct {
	TimeToCollisionS float64 `json:"time_to_collision_s"`
}

// Snapshot is a read-only view of the controller state served over HTTP.
type Snapshot struct {
	SpeedMPS            float64 `json:"speed_mps"`
	CollisionThresholdS float64 `json:"collision_threshold_s"`
	SpeedLimitMPS       uint16  `json:"speed_limit_mps"`
}

// Operator represents an authenticated dashboard user.
type Operator struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CommandRecord is a persisted brake command.
type CommandRecord struct {
	ID               string    `json:"id" db:"id"`
	AgentID          string    `json:"agent_id" db:"agent_id"`
	TimeToCollisionS float64   `json:"time_to_collision_s" db:"time_to_collision_s"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// HostInfo carries gateway host telemetry attached to agent heartbeats.
type HostInfo struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	KernelVersion string  `json:"kernel_version"`
	Uptime        uint64  `json:"uptime"`
	CPUCount      int     `json:"cpu_count"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryPercent float64 `json:"memory_percent"`
	LoadAverage   float64 `json:"load_average"`
}
