package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// ConflictResult describes the outcome of the same-day exclusivity check.
// When HasConflict is set the remaining fields identify the blocking
// appointment so the caller can offer "view existing appointment" or
// "cancel and rebook" remediation.
type ConflictResult struct {
	HasConflict bool `json:"hasConflict"`

	AppointmentID string                   `json:"appointmentId,omitempty"`
	ClinicID      string                   `json:"clinicId,omitempty"`
	ClinicName    string                   `json:"clinicName,omitempty"`
	DoctorID      string                   `json:"doctorId,omitempty"`
	Date          string                   `json:"date,omitempty"`
	Start         string                   `json:"start,omitempty"`
	Status        models.AppointmentStatus `json:"status,omitempty"`
	// SameClinic is set when the blocking appointment is at the clinic of
	// the new request, where "cancel and rebook" is actionable in place.
	SameClinic bool `json:"sameClinic,omitempty"`
}

// CheckSameDayConflict enforces the network-wide rule that a patient holds
// at most one pending/confirmed appointment per calendar date. excludeID
// names an appointment to ignore (the one being rescheduled); clinicID is
// the clinic of the new request and only feeds the SameClinic flag.
func (e *Engine) CheckSameDayConflict(ctx context.Context, patientID string, date time.Time, excludeID, clinicID string) (ConflictResult, error) {
	result, err := e.checkConflictWith(ctx, e.store, patientID, date, excludeID, clinicID)
	if err != nil || !result.HasConflict {
		return result, err
	}
	if clinic, err := e.store.ClinicByID(ctx, result.ClinicID); err == nil && clinic != nil {
		result.ClinicName = clinic.Name
	}
	return result, nil
}

// conflictRejection renders a conflict as the structured policy violation
// the orchestrator surfaces.
func conflictRejection(conflict ConflictResult) *Rejection {
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       "same_day_conflict",
		Title:      "You already have an appointment that day",
		Message:    "Only one appointment per day is allowed across all clinics.",
		Suggestion: "View your existing appointment, or cancel it before booking another.",
		Data: map[string]interface{}{
			"conflict": conflict,
		},
	}
}
