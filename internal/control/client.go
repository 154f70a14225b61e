package control

import "github.com/roadsense/autobrake/internal/models"

// StatusSource is the read side consumed by the HTTP API.
type StatusSource interface {
	Status() models.StatusEvent
	LastCommand() *models.BrakeCommand
}
