package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// appointmentTransitions is the allowed status transition table. Statuses
// missing from the map are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether an appointment in status from may move to
// status to.
func CanTransition(from, to AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OpenStatuses are the statuses that count as an active commitment: they
// block the patient's day, consume booking quota and occupy the doctor's
// slot.
var OpenStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// Appointment represents a scheduled dental visit.
type Appointment struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patientId"`
	ClinicID  string `gorm:"size:36;index;not null" json:"clinicId"`
	DoctorID  string `gorm:"size:36;index;not null" json:"doctorId"`

	// Date is the clinic-local calendar day of the visit; the time-of-day
	// lives in StartMinute (minutes from midnight) so day-based rules
	// never have to reason about timezones.
	Date            time.Time `gorm:"type:date;index" json:"date"`
	StartMinute     int       `gorm:"not null" json:"startMinute"`
	DurationMinutes int       `gorm:"default:30" json:"durationMinutes"`

	Status   AppointmentStatus `gorm:"size:20;default:'pending';index" json:"status"`
	Symptoms string            `gorm:"type:text" json:"symptoms,omitempty"`

	// TreatmentPlanID links the visit to a multi-visit plan. The plan
	// holds its own weak reference to the next open visit; neither side
	// owns the other.
	TreatmentPlanID *string `gorm:"size:36;index" json:"treatmentPlanId,omitempty"`

	CancellationReason string `gorm:"size:255" json:"cancellationReason,omitempty"`
	// CancelledLate records a cancellation inside the clinic's policy
	// window (only staff can perform one). Feeds the reliability scorer.
	CancelledLate bool `gorm:"default:false" json:"-"`

	// Relations
	Patient  User      `gorm:"foreignKey:PatientID" json:"-"`
	Clinic   Clinic    `gorm:"foreignKey:ClinicID" json:"-"`
	Doctor   Doctor    `gorm:"foreignKey:DoctorID" json:"-"`
	Services []Service `gorm:"many2many:appointment_services" json:"services,omitempty"`
}

// IsOpen reports whether the appointment still counts as an active
// commitment (same-day exclusivity, quotas, doctor slot occupancy).
func (a *Appointment) IsOpen() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// EndMinute returns the minute-of-day at which the appointment ends.
func (a *Appointment) EndMinute() int {
	return a.StartMinute + a.DurationMinutes
}

// StartAt combines the calendar date and start minute into a point in time,
// in the date's location.
func (a *Appointment) StartAt() time.Time {
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, a.StartMinute, 0, 0, a.Date.Location())
}

// OverlapsInterval reports whether [start, start+duration) intersects the
// appointment's own interval on the same day.
func (a *Appointment) OverlapsInterval(startMinute, durationMinutes int) bool {
	return startMinute < a.EndMinute() && a.StartMinute < startMinute+durationMinutes
}
