package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// HistoryCounts aggregates a patient's appointment history at one clinic.
type HistoryCounts struct {
	Completed     int64
	NoShow        int64
	CancelledLate int64
	Total         int64
}

// Store is the persistence boundary of the policy engine. All reads are
// bounded point queries; Transaction provides the consistency boundary for
// the committing operations (see the engine's keyed locks for the in-process
// serialization layered on top).
type Store interface {
	ClinicByID(ctx context.Context, id string) (*models.Clinic, error)
	DoctorByID(ctx context.Context, id string) (*models.Doctor, error)
	// DoctorWorksAt reports whether the doctor has an active relationship
	// with the clinic.
	DoctorWorksAt(ctx context.Context, doctorID, clinicID string) (bool, error)
	// ScheduleWindows returns the doctor's recurring working windows for a
	// weekday, ordered by start minute.
	ScheduleWindows(ctx context.Context, doctorID string, weekday time.Weekday) ([]models.ScheduleWindow, error)
	ServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	// ActiveServicesByCategory returns currently bookable services in a
	// treatment category.
	ActiveServicesByCategory(ctx context.Context, category string) ([]models.Service, error)

	AppointmentByID(ctx context.Context, id string) (*models.Appointment, error)
	// OpenAppointmentsForDoctor returns the doctor's pending/confirmed
	// appointments on a calendar date.
	OpenAppointmentsForDoctor(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error)
	// OpenAppointmentForPatientOn returns the patient's pending/confirmed
	// appointment on a date anywhere in the network, or nil when there is
	// none. excludeID (may be empty) names an appointment to ignore,
	// used while rescheduling it.
	OpenAppointmentForPatientOn(ctx context.Context, patientID string, date time.Time, excludeID string) (*models.Appointment, error)
	CountOpenAppointments(ctx context.Context, patientID string) (int64, error)
	CountOpenAppointmentsAtClinic(ctx context.Context, patientID, clinicID string) (int64, error)
	HistoryCounts(ctx context.Context, patientID, clinicID string) (HistoryCounts, error)

	TreatmentPlanByID(ctx context.Context, id string) (*models.TreatmentPlan, error)
	// ActivePlansForPatient returns the patient's plans with status
	// active.
	ActivePlansForPatient(ctx context.Context, patientID string) ([]models.TreatmentPlan, error)

	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	SaveAppointment(ctx context.Context, appt *models.Appointment) error
	SaveTreatmentPlan(ctx context.Context, plan *models.TreatmentPlan) error

	// Transaction runs fn against a store view whose writes commit
	// atomically, or not at all.
	Transaction(ctx context.Context, fn func(Store) error) error
}
