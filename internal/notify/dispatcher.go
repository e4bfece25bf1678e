package notify

import (
	"github.com/rs/zerolog"

	"dental-booking-server/internal/models"
)

// Dispatcher is the delivery-side collaborator for post-commit booking
// events. The server treats delivery as external: events are handed off
// fire-and-forget and are never allowed to block or fail a commit.
type Dispatcher struct {
	log zerolog.Logger
}

// NewDispatcher creates a dispatcher that records every event in the
// structured log. Real channels (email, SMS) plug in behind the same
// method.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log.With().Str("component", "notify").Logger()}
}

// Dispatch hands an appointment event to the delivery pipeline.
func (d *Dispatcher) Dispatch(eventType string, appt *models.Appointment, recipient string) {
	d.log.Info().
		Str("event", eventType).
		Str("appointment_id", appt.ID).
		Str("recipient", recipient).
		Str("clinic_id", appt.ClinicID).
		Str("status", string(appt.Status)).
		Msg("appointment event dispatched")
}
