package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dental-booking-server/internal/models"
)

func TestResolveConsultationBareVisit(t *testing.T) {
	s := seedNetwork()
	e := newTestEngine(s)

	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1", nil, "clinic-1", "")
	require.NoError(t, err)
	assert.True(t, req.CanSkipConsultation)
}

func TestResolveConsultationDirectServices(t *testing.T) {
	s := seedNetwork()
	e := newTestEngine(s)

	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-cleaning", "svc-whitening"}, "clinic-1", "")
	require.NoError(t, err)
	assert.True(t, req.CanSkipConsultation)
	assert.Empty(t, req.BlockedCategories)
}

func TestResolveConsultationBlockedWithoutPlan(t *testing.T) {
	s := seedNetwork()
	e := newTestEngine(s)

	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-cleaning", "svc-root-canal"}, "clinic-1", "")
	require.NoError(t, err)
	assert.False(t, req.CanSkipConsultation)
	assert.Equal(t, []string{"endodontics"}, req.BlockedCategories)
	assert.NotEmpty(t, req.Reason)
}

func TestResolveConsultationSatisfiedByActivePlan(t *testing.T) {
	s := seedNetwork()
	plan := s.addPlan(models.TreatmentPlan{
		PatientID:     "patient-1",
		ClinicID:      "clinic-1",
		DoctorID:      "doc-1",
		Category:      "endodontics",
		Status:        models.PlanActive,
		PlannedVisits: 3,
	})
	e := newTestEngine(s)

	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-root-canal"}, "clinic-1", "")
	require.NoError(t, err)
	assert.True(t, req.CanSkipConsultation)
	assert.Equal(t, plan.ID, req.SatisfiedByPlanID)
}

func TestResolveConsultationPausedPlanDoesNotSatisfy(t *testing.T) {
	s := seedNetwork()
	plan := s.addPlan(models.TreatmentPlan{
		PatientID:     "patient-1",
		ClinicID:      "clinic-1",
		DoctorID:      "doc-1",
		Category:      "endodontics",
		Status:        models.PlanPaused,
		PlannedVisits: 3,
	})
	e := newTestEngine(s)

	// Both lookup paths: implicitly via the patient's active plans, and
	// with the paused plan named explicitly.
	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-root-canal"}, "clinic-1", "")
	require.NoError(t, err)
	assert.False(t, req.CanSkipConsultation)

	req, err = e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-root-canal"}, "clinic-1", plan.ID)
	require.NoError(t, err)
	assert.False(t, req.CanSkipConsultation)
}

func TestResolveConsultationWrongCategoryPlan(t *testing.T) {
	s := seedNetwork()
	s.addPlan(models.TreatmentPlan{
		PatientID:     "patient-1",
		ClinicID:      "clinic-1",
		DoctorID:      "doc-1",
		Category:      "orthodontics",
		Status:        models.PlanActive,
		PlannedVisits: 3,
	})
	e := newTestEngine(s)

	req, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-root-canal"}, "clinic-1", "")
	require.NoError(t, err)
	assert.False(t, req.CanSkipConsultation)
	assert.Empty(t, req.SatisfiedByPlanID)
}

func TestResolveConsultationForeignPlanRejected(t *testing.T) {
	s := seedNetwork()
	plan := s.addPlan(models.TreatmentPlan{
		PatientID:     "patient-2",
		ClinicID:      "clinic-1",
		DoctorID:      "doc-1",
		Category:      "endodontics",
		Status:        models.PlanActive,
		PlannedVisits: 3,
	})
	e := newTestEngine(s)

	_, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-root-canal"}, "clinic-1", plan.ID)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, KindAccessDenied, rej.Kind)
	assert.Equal(t, "plan_not_owned", rej.Type)
}

func TestResolveConsultationUnknownService(t *testing.T) {
	s := seedNetwork()
	e := newTestEngine(s)

	_, err := e.ResolveConsultationRequirement(context.Background(), "patient-1",
		[]string{"svc-missing"}, "clinic-1", "")
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "service_not_found", rej.Type)
}
