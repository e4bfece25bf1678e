package booking

import (
	"context"

	"dental-booking-server/internal/models"
)

// UpdateAppointmentStatus applies a staff lifecycle transition (confirm,
// complete, no-show). Completion advances the linked treatment plan in the
// same transaction as the status write, so a plan bookkeeping failure rolls
// the transition back too. Cancellation goes through CancelAppointment.
func (e *Engine) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status models.AppointmentStatus) (*models.Appointment, error) {
	appt, err := e.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, infraError("load appointment", err)
	}
	if appt == nil {
		return nil, validationError("appointment_not_found", "appointment does not exist")
	}

	err = e.store.Transaction(ctx, func(tx Store) error {
		if !models.CanTransition(appt.Status, status) {
			return &Rejection{
				Kind:    KindPolicyViolation,
				Type:    "invalid_status_transition",
				Title:   "Invalid status change",
				Message: "An appointment in status " + string(appt.Status) + " cannot move to " + string(status) + ".",
			}
		}
		oldStatus := appt.Status
		appt.Status = status
		if err := tx.SaveAppointment(ctx, appt); err != nil {
			appt.Status = oldStatus
			return infraError("save appointment", err)
		}
		if status == models.StatusCompleted {
			if err := e.advancePlan(ctx, tx, appt); err != nil {
				appt.Status = oldStatus
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("appointment_id", appt.ID).
		Str("status", string(appt.Status)).
		Msg("appointment status updated")
	e.dispatch("appointment."+string(appt.Status), appt)
	return appt, nil
}
