package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// FollowUpTemplate pre-fills a follow-up booking for an active treatment
// plan: the assigned doctor, the recommended date and the services matching
// the plan's treatment category.
type FollowUpTemplate struct {
	PlanID       string     `json:"planId"`
	ClinicID     string     `json:"clinicId"`
	DoctorID     string     `json:"doctorId"`
	Category     string     `json:"category"`
	NextVisitDue *time.Time `json:"nextVisitDue,omitempty"`

	RecommendedServices []models.Service `json:"recommendedServices"`

	PlannedVisits   int `json:"plannedVisits"`
	CompletedVisits int `json:"completedVisits"`
}

// GetFollowUpTemplate builds the follow-up booking template for a plan.
// Only active plans with a currently available doctor qualify; everything
// else returns a structured rejection naming the blocker.
func (e *Engine) GetFollowUpTemplate(ctx context.Context, planID string) (*FollowUpTemplate, error) {
	plan, err := e.store.TreatmentPlanByID(ctx, planID)
	if err != nil {
		return nil, infraError("load treatment plan", err)
	}
	if plan == nil {
		return nil, validationError("plan_not_found", "treatment plan does not exist")
	}
	if plan.Status != models.PlanActive {
		return nil, planNotActiveRejection(plan)
	}

	doctor, err := e.store.DoctorByID(ctx, plan.DoctorID)
	if err != nil {
		return nil, infraError("load doctor", err)
	}
	if doctor == nil || !doctor.IsAvailable {
		// The assigned doctor leaving mid-plan needs staff reassignment
		// before the patient can book the next visit.
		return nil, &Rejection{
			Kind:       KindResourceUnavailable,
			Type:       "assigned_doctor_unavailable",
			Title:      "Assigned doctor unavailable",
			Message:    "The doctor assigned to this treatment plan is not currently available.",
			Suggestion: "Contact the clinic to have the plan reassigned before booking the next visit.",
		}
	}

	services, err := e.store.ActiveServicesByCategory(ctx, plan.Category)
	if err != nil {
		return nil, infraError("load services", err)
	}

	return &FollowUpTemplate{
		PlanID:              plan.ID,
		ClinicID:            plan.ClinicID,
		DoctorID:            plan.DoctorID,
		Category:            plan.Category,
		NextVisitDue:        plan.NextVisitDue,
		RecommendedServices: services,
		PlannedVisits:       plan.PlannedVisits,
		CompletedVisits:     plan.CompletedVisits,
	}, nil
}

// HandleAppointmentCompleted advances the linked plan when a visit
// completes: bumps the completed-visit count, clears the next-visit
// reference and either finishes the plan or schedules the next due date
// from the follow-up interval. Appointments without a plan are a no-op.
func (e *Engine) HandleAppointmentCompleted(ctx context.Context, appt *models.Appointment) error {
	if appt.TreatmentPlanID == nil || *appt.TreatmentPlanID == "" {
		return nil
	}
	return e.store.Transaction(ctx, func(tx Store) error {
		return e.advancePlan(ctx, tx, appt)
	})
}

// advancePlan is the plan bookkeeping for a completed visit, run against
// the caller's transaction so the status write and the plan update land or
// roll back together.
func (e *Engine) advancePlan(ctx context.Context, tx Store, appt *models.Appointment) error {
	if appt.TreatmentPlanID == nil || *appt.TreatmentPlanID == "" {
		return nil
	}
	plan, err := tx.TreatmentPlanByID(ctx, *appt.TreatmentPlanID)
	if err != nil {
		return infraError("load treatment plan", err)
	}
	if plan == nil || plan.IsTerminal() {
		return nil
	}

	plan.CompletedVisits++
	if plan.NextVisitAppointmentID != nil && *plan.NextVisitAppointmentID == appt.ID {
		plan.NextVisitAppointmentID = nil
	}

	if plan.CompletedVisits >= plan.PlannedVisits {
		plan.Status = models.PlanCompleted
		plan.NextVisitDue = nil
	} else {
		due := DateOnly(appt.Date).AddDate(0, 0, plan.FollowUpIntervalDays)
		plan.NextVisitDue = &due
	}

	if err := tx.SaveTreatmentPlan(ctx, plan); err != nil {
		return infraError("save treatment plan", err)
	}
	e.log.Info().
		Str("plan_id", plan.ID).
		Int("completed_visits", plan.CompletedVisits).
		Int("planned_visits", plan.PlannedVisits).
		Msg("treatment plan advanced")
	return nil
}

// clearNextVisitRef drops the plan's weak reference to a cancelled
// appointment. The plan tolerates the loss; nothing cascades.
func (e *Engine) clearNextVisitRef(ctx context.Context, tx Store, appt *models.Appointment) error {
	if appt.TreatmentPlanID == nil || *appt.TreatmentPlanID == "" {
		return nil
	}
	plan, err := tx.TreatmentPlanByID(ctx, *appt.TreatmentPlanID)
	if err != nil {
		return infraError("load treatment plan", err)
	}
	if plan == nil || plan.NextVisitAppointmentID == nil || *plan.NextVisitAppointmentID != appt.ID {
		return nil
	}
	plan.NextVisitAppointmentID = nil
	if err := tx.SaveTreatmentPlan(ctx, plan); err != nil {
		return infraError("save treatment plan", err)
	}
	return nil
}

// linkNextVisit attaches a newly committed appointment to a plan as its
// next visit. An appointment may belong to at most one active plan;
// relinking to the same plan is rejected as a no-op rather than an error
// escalation.
func (e *Engine) linkNextVisit(ctx context.Context, tx Store, planID string, appt *models.Appointment) error {
	plan, err := tx.TreatmentPlanByID(ctx, planID)
	if err != nil {
		return infraError("load treatment plan", err)
	}
	if plan == nil {
		return validationError("plan_not_found", "treatment plan does not exist")
	}
	if plan.PatientID != appt.PatientID {
		return accessDenied("plan_not_owned", "treatment plan belongs to a different patient")
	}
	if plan.Status != models.PlanActive {
		return planNotActiveRejection(plan)
	}
	if appt.TreatmentPlanID != nil && *appt.TreatmentPlanID != "" && *appt.TreatmentPlanID != planID {
		return &Rejection{
			Kind:    KindPolicyViolation,
			Type:    "already_linked",
			Title:   "Already linked",
			Message: "This appointment is already part of a different active treatment plan.",
		}
	}
	if plan.NextVisitAppointmentID != nil && *plan.NextVisitAppointmentID != "" && *plan.NextVisitAppointmentID != appt.ID {
		return &Rejection{
			Kind:       KindPolicyViolation,
			Type:       "next_visit_taken",
			Title:      "Next visit already booked",
			Message:    "An open appointment already represents this plan's next visit.",
			Suggestion: "Cancel the existing follow-up before booking a new one.",
		}
	}

	appt.TreatmentPlanID = &plan.ID
	if err := tx.SaveAppointment(ctx, appt); err != nil {
		return infraError("save appointment", err)
	}
	plan.NextVisitAppointmentID = &appt.ID
	if err := tx.SaveTreatmentPlan(ctx, plan); err != nil {
		return infraError("save treatment plan", err)
	}
	return nil
}

func planNotActiveRejection(plan *models.TreatmentPlan) *Rejection {
	suggestion := "Ask the clinic to reactivate the plan before booking a follow-up."
	if plan.IsTerminal() {
		suggestion = "This plan is finished; new treatment needs a fresh consultation."
	}
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       "plan_not_active",
		Title:      "Treatment plan not active",
		Message:    "Follow-up visits can only be booked against an active treatment plan (current status: " + string(plan.Status) + ").",
		Suggestion: suggestion,
		Data: map[string]interface{}{
			"planId": plan.ID,
			"status": plan.Status,
		},
	}
}
