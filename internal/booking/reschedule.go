package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// ActorRole identifies who is asking the policy gate.
type ActorRole string

const (
	ActorPatient ActorRole = "patient"
	ActorStaff   ActorRole = "staff"
)

// RescheduleEligibility is the gate's verdict on moving or cancelling an
// existing appointment.
type RescheduleEligibility struct {
	CanReschedule bool    `json:"canReschedule"`
	Reason        string  `json:"reason,omitempty"`
	HoursUntil    float64 `json:"hoursUntil"`
	PolicyHours   int     `json:"policyHours"`
}

// EvaluateReschedule applies the clinic's lead-time policy to an existing
// appointment. Staff may always override; a patient is bound by the
// clinic's cancellation window and the appointment's status.
func (e *Engine) EvaluateReschedule(ctx context.Context, appointmentID string, actor ActorRole) (RescheduleEligibility, error) {
	appt, err := e.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return RescheduleEligibility{}, infraError("load appointment", err)
	}
	if appt == nil {
		return RescheduleEligibility{}, validationError("appointment_not_found", "appointment does not exist")
	}
	return e.evaluateRescheduleFor(ctx, appt, actor)
}

func (e *Engine) evaluateRescheduleFor(ctx context.Context, appt *models.Appointment, actor ActorRole) (RescheduleEligibility, error) {
	clinic, err := e.store.ClinicByID(ctx, appt.ClinicID)
	if err != nil {
		return RescheduleEligibility{}, infraError("load clinic", err)
	}
	if clinic == nil {
		return RescheduleEligibility{}, validationError("clinic_not_found", "clinic does not exist")
	}

	hoursUntil := appt.StartAt().Sub(e.now()).Hours()
	eligibility := RescheduleEligibility{
		HoursUntil:  hoursUntil,
		PolicyHours: clinic.CancellationPolicyHours,
	}

	if !appt.IsOpen() {
		eligibility.Reason = "appointment is " + string(appt.Status)
		return eligibility, nil
	}
	if actor == ActorStaff {
		eligibility.CanReschedule = true
		return eligibility, nil
	}
	if hoursUntil <= float64(clinic.CancellationPolicyHours) {
		eligibility.Reason = "inside the clinic's cancellation window"
		return eligibility, nil
	}
	eligibility.CanReschedule = true
	return eligibility, nil
}

// CommitReschedule moves an appointment to a new date/time in place: the
// appointment keeps its identity, clinic and doctor. Availability and the
// same-day rule are re-checked for the new slot (excluding the appointment
// itself) under the locks for both the old and new doctor-day, so a failed
// attempt leaves the original date and time untouched.
func (e *Engine) CommitReschedule(ctx context.Context, appointmentID string, newDate time.Time, newStartMinute int, reason string, actor ActorRole) (*models.Appointment, error) {
	if !validMinute(newStartMinute) {
		return nil, validationError("invalid_time", "start time is out of range")
	}
	if err := e.validateSlotTiming(newDate, newStartMinute); err != nil {
		return nil, err
	}

	appt, err := e.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, infraError("load appointment", err)
	}
	if appt == nil {
		return nil, validationError("appointment_not_found", "appointment does not exist")
	}

	eligibility, err := e.evaluateRescheduleFor(ctx, appt, actor)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanReschedule {
		return nil, rescheduleRejection(eligibility)
	}

	release := e.locks.acquire(
		patientKey(appt.PatientID),
		doctorDayKey(appt.DoctorID, FormatDate(appt.Date)),
		doctorDayKey(appt.DoctorID, FormatDate(newDate)),
	)
	defer release()

	oldDate, oldStart := appt.Date, appt.StartMinute
	appt.Date = DateOnly(newDate)
	appt.StartMinute = newStartMinute

	err = e.store.Transaction(ctx, func(tx Store) error {
		open, err := e.slotStillOpen(ctx, tx, appt)
		if err != nil {
			return err
		}
		if !open {
			return &Rejection{
				Kind:       KindResourceUnavailable,
				Type:       "slot_taken",
				Title:      "Slot not available",
				Message:    "The requested time is not open for this doctor.",
				Suggestion: "Choose a different time from the doctor's availability.",
			}
		}

		conflict, err := e.checkConflictWith(ctx, tx, appt.PatientID, appt.Date, appt.ID, appt.ClinicID)
		if err != nil {
			return err
		}
		if conflict.HasConflict {
			return conflictRejection(conflict)
		}

		if err := tx.SaveAppointment(ctx, appt); err != nil {
			return infraError("save appointment", err)
		}
		return nil
	})
	if err != nil {
		// Restore in-memory state so the caller never observes a moved
		// appointment on a rejected attempt.
		appt.Date, appt.StartMinute = oldDate, oldStart
		return nil, err
	}

	e.log.Info().
		Str("appointment_id", appt.ID).
		Str("date", FormatDate(appt.Date)).
		Str("start", FormatMinute(appt.StartMinute)).
		Str("reason", reason).
		Msg("appointment rescheduled")
	e.dispatch("appointment.rescheduled", appt)
	return appt, nil
}

// CancelAppointment is the gate's cancellation path. The same lead-time
// policy applies; staff may cancel inside the window, which records a late
// cancellation for the reliability scorer. A linked treatment plan only
// loses its weak next-visit reference.
func (e *Engine) CancelAppointment(ctx context.Context, appointmentID, reason string, actor ActorRole) (*models.Appointment, error) {
	appt, err := e.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, infraError("load appointment", err)
	}
	if appt == nil {
		return nil, validationError("appointment_not_found", "appointment does not exist")
	}

	eligibility, err := e.evaluateRescheduleFor(ctx, appt, actor)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanReschedule {
		return nil, rescheduleRejection(eligibility)
	}

	release := e.locks.acquire(
		patientKey(appt.PatientID),
		doctorDayKey(appt.DoctorID, FormatDate(appt.Date)),
	)
	defer release()

	err = e.store.Transaction(ctx, func(tx Store) error {
		if !models.CanTransition(appt.Status, models.StatusCancelled) {
			return &Rejection{
				Kind:    KindPolicyViolation,
				Type:    "invalid_status_transition",
				Title:   "Cannot cancel",
				Message: "An appointment in status " + string(appt.Status) + " cannot be cancelled.",
			}
		}
		appt.Status = models.StatusCancelled
		appt.CancellationReason = reason
		appt.CancelledLate = eligibility.HoursUntil <= float64(eligibility.PolicyHours)
		if err := tx.SaveAppointment(ctx, appt); err != nil {
			return infraError("save appointment", err)
		}
		return e.clearNextVisitRef(ctx, tx, appt)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("appointment_id", appt.ID).
		Bool("late", appt.CancelledLate).
		Msg("appointment cancelled")
	e.dispatch("appointment.cancelled", appt)
	return appt, nil
}

func rescheduleRejection(eligibility RescheduleEligibility) *Rejection {
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       "outside_reschedule_window",
		Title:      "Change not allowed",
		Message:    "This appointment can no longer be changed: " + eligibility.Reason + ".",
		Suggestion: "Contact the clinic directly if the change is urgent.",
		Data: map[string]interface{}{
			"eligibility": eligibility,
		},
	}
}
