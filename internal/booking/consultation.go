package booking

import (
	"context"

	"dental-booking-server/internal/models"
)

// ConsultationRequirement is the outcome of resolving whether selected
// services can be booked directly or need a prior consultation visit.
type ConsultationRequirement struct {
	CanSkipConsultation bool   `json:"canSkipConsultation"`
	Reason              string `json:"reason,omitempty"`
	// BlockedCategories lists the treatment categories that still need a
	// consultation before direct booking.
	BlockedCategories []string `json:"blockedCategories,omitempty"`
	// SatisfiedByPlanID names the active treatment plan that waived the
	// requirement, when one did.
	SatisfiedByPlanID string `json:"satisfiedByPlanId,omitempty"`
}

// ResolveConsultationRequirement decides whether the selected services may
// be booked directly. A service without the direct-booking flag requires a
// consultation, unless an active treatment plan already assigns the patient
// a doctor for that service's category.
func (e *Engine) ResolveConsultationRequirement(ctx context.Context, patientID string, serviceIDs []string, clinicID, planID string) (ConsultationRequirement, error) {
	if len(serviceIDs) == 0 {
		// A bare consultation booking is always permitted.
		return ConsultationRequirement{CanSkipConsultation: true}, nil
	}

	services, err := e.store.ServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return ConsultationRequirement{}, infraError("load services", err)
	}
	if len(services) != len(serviceIDs) {
		return ConsultationRequirement{}, validationError("service_not_found", "one or more selected services do not exist")
	}

	plans, err := e.patientPlans(ctx, patientID, planID)
	if err != nil {
		return ConsultationRequirement{}, err
	}

	covered := make(map[string]string) // category -> plan id
	for i := range plans {
		if plans[i].Status == models.PlanActive && plans[i].DoctorID != "" {
			covered[plans[i].Category] = plans[i].ID
		}
	}

	requirement := ConsultationRequirement{CanSkipConsultation: true}
	seen := make(map[string]bool)
	for _, svc := range services {
		if svc.AllowsDirectBooking {
			continue
		}
		if coveringPlan, ok := covered[svc.Category]; ok {
			requirement.SatisfiedByPlanID = coveringPlan
			continue
		}
		if !seen[svc.Category] {
			seen[svc.Category] = true
			requirement.BlockedCategories = append(requirement.BlockedCategories, svc.Category)
		}
	}

	if len(requirement.BlockedCategories) > 0 {
		requirement.CanSkipConsultation = false
		requirement.Reason = "selected services require a consultation visit before direct booking"
		requirement.SatisfiedByPlanID = ""
	}
	return requirement, nil
}

// patientPlans resolves the plans eligible to satisfy a consultation
// requirement: the explicitly named plan when given, otherwise all of the
// patient's active plans.
func (e *Engine) patientPlans(ctx context.Context, patientID, planID string) ([]models.TreatmentPlan, error) {
	if planID == "" {
		plans, err := e.store.ActivePlansForPatient(ctx, patientID)
		if err != nil {
			return nil, infraError("load treatment plans", err)
		}
		return plans, nil
	}

	plan, err := e.store.TreatmentPlanByID(ctx, planID)
	if err != nil {
		return nil, infraError("load treatment plan", err)
	}
	if plan == nil {
		return nil, validationError("plan_not_found", "treatment plan does not exist")
	}
	if plan.PatientID != patientID {
		return nil, accessDenied("plan_not_owned", "treatment plan belongs to a different patient")
	}
	return []models.TreatmentPlan{*plan}, nil
}

func consultationRejection(requirement ConsultationRequirement) *Rejection {
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       "consultation_required",
		Title:      "Consultation required",
		Message:    "The selected services need an in-person consultation before they can be booked directly.",
		Suggestion: "Book a consultation visit first, or select services that allow direct booking.",
		Data: map[string]interface{}{
			"consultation": requirement,
		},
	}
}
