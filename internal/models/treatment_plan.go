package models

import (
	"time"
)

// TreatmentPlanStatus represents the status of a treatment plan
type TreatmentPlanStatus string

const (
	PlanActive    TreatmentPlanStatus = "active"
	PlanPaused    TreatmentPlanStatus = "paused"
	PlanCompleted TreatmentPlanStatus = "completed"
	PlanCancelled TreatmentPlanStatus = "cancelled"
)

// TreatmentPlan tracks a multi-visit course of treatment. Staff create one
// after a qualifying appointment; linked appointments advance it as they
// complete.
type TreatmentPlan struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patientId"`
	ClinicID  string `gorm:"size:36;index;not null" json:"clinicId"`
	DoctorID  string `gorm:"size:36;index;not null" json:"doctorId"`

	Category string              `gorm:"size:100;index" json:"category"`
	Status   TreatmentPlanStatus `gorm:"size:20;default:'active';index" json:"status"`

	PlannedVisits        int `gorm:"not null" json:"plannedVisits"`
	CompletedVisits      int `gorm:"default:0" json:"completedVisits"`
	FollowUpIntervalDays int `gorm:"default:14" json:"followUpIntervalDays"`

	// NextVisitDue is the recommended date of the next visit, recomputed
	// whenever a linked appointment completes.
	NextVisitDue *time.Time `gorm:"type:date" json:"nextVisitDue,omitempty"`

	// NextVisitAppointmentID is a weak reference to the single open
	// appointment representing the next visit. The appointment's
	// lifecycle is independent; if it is cancelled the reference is
	// cleared, never cascaded.
	NextVisitAppointmentID *string `gorm:"size:36" json:"nextVisitAppointmentId,omitempty"`

	// Relations
	Patient User   `gorm:"foreignKey:PatientID" json:"-"`
	Clinic  Clinic `gorm:"foreignKey:ClinicID" json:"-"`
	Doctor  Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// IsTerminal reports whether the plan can no longer change.
func (p *TreatmentPlan) IsTerminal() bool {
	return p.Status == PlanCompleted || p.Status == PlanCancelled
}
