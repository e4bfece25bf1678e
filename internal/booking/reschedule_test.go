package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dental-booking-server/internal/models"
)

// appointmentIn seeds a confirmed appointment at clinic-1/doc-1 the given
// number of hours after the frozen test clock.
func appointmentIn(s *memStore, hours int) *models.Appointment {
	at := testNow.Add(time.Duration(hours) * time.Hour)
	return s.addAppointment(models.Appointment{
		PatientID:   "patient-1",
		ClinicID:    "clinic-1",
		DoctorID:    "doc-1",
		Date:        DateOnly(at),
		StartMinute: at.Hour()*60 + at.Minute(),
		Status:      models.StatusConfirmed,
	})
}

func TestEvaluateRescheduleInsideWindow(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 10) // clinic-1 policy is 24 hours
	e := newTestEngine(s)

	eligibility, err := e.EvaluateReschedule(context.Background(), appt.ID, ActorPatient)
	require.NoError(t, err)
	assert.False(t, eligibility.CanReschedule)
	assert.InDelta(t, 10, eligibility.HoursUntil, 0.01)
	assert.Equal(t, 24, eligibility.PolicyHours)
	assert.NotEmpty(t, eligibility.Reason)

	// Staff override the lead-time policy.
	eligibility, err = e.EvaluateReschedule(context.Background(), appt.ID, ActorStaff)
	require.NoError(t, err)
	assert.True(t, eligibility.CanReschedule)
}

func TestEvaluateRescheduleOutsideWindow(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	e := newTestEngine(s)

	eligibility, err := e.EvaluateReschedule(context.Background(), appt.ID, ActorPatient)
	require.NoError(t, err)
	assert.True(t, eligibility.CanReschedule)
	assert.InDelta(t, 72, eligibility.HoursUntil, 0.01)
}

func TestEvaluateRescheduleClosedAppointment(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	appt.Status = models.StatusCompleted
	e := newTestEngine(s)

	// A closed appointment cannot move, not even for staff.
	for _, actor := range []ActorRole{ActorPatient, ActorStaff} {
		eligibility, err := e.EvaluateReschedule(context.Background(), appt.ID, actor)
		require.NoError(t, err)
		assert.False(t, eligibility.CanReschedule, string(actor))
		assert.Contains(t, eligibility.Reason, "completed")
	}
}

func TestEvaluateRescheduleUnknownAppointment(t *testing.T) {
	s := seedNetwork()
	e := newTestEngine(s)

	_, err := e.EvaluateReschedule(context.Background(), "nope", ActorPatient)
	requireRejection(t, err, KindValidation, "appointment_not_found")
}

func TestCommitReschedule(t *testing.T) {
	s := seedNetwork()
	appt := s.addAppointment(models.Appointment{
		PatientID:   "patient-1",
		ClinicID:    "clinic-1",
		DoctorID:    "doc-1",
		Date:        monday,
		StartMinute: 540,
		Status:      models.StatusConfirmed,
	})
	e := newTestEngine(s)

	moved, err := e.CommitReschedule(context.Background(), appt.ID, monday, 600, "running late", ActorPatient)
	require.NoError(t, err)
	assert.Equal(t, 600, moved.StartMinute)
	assert.Equal(t, appt.ID, moved.ID)
	assert.Equal(t, "clinic-1", moved.ClinicID)
	assert.Equal(t, "doc-1", moved.DoctorID)

	stored, err := s.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 600, stored.StartMinute)
}

func TestCommitRescheduleToTakenSlotLeavesOriginal(t *testing.T) {
	s := seedNetwork()
	appt := s.addAppointment(models.Appointment{
		PatientID:   "patient-1",
		ClinicID:    "clinic-1",
		DoctorID:    "doc-1",
		Date:        monday,
		StartMinute: 540,
		Status:      models.StatusConfirmed,
	})
	s.addAppointment(models.Appointment{
		PatientID:   "patient-2",
		ClinicID:    "clinic-1",
		DoctorID:    "doc-1",
		Date:        monday,
		StartMinute: 600,
		Status:      models.StatusConfirmed,
	})
	e := newTestEngine(s)

	_, err := e.CommitReschedule(context.Background(), appt.ID, monday, 600, "", ActorPatient)
	requireRejection(t, err, KindResourceUnavailable, "slot_taken")

	// The failed attempt changed nothing.
	stored, err := s.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 540, stored.StartMinute)
	assert.True(t, SameDate(monday, stored.Date))
}

func TestCommitRescheduleInsideWindowRejected(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 10)
	e := newTestEngine(s)

	_, err := e.CommitReschedule(context.Background(), appt.ID, monday, 600, "", ActorPatient)
	rej := requireRejection(t, err, KindPolicyViolation, "outside_reschedule_window")
	assert.Contains(t, rej.Data, "eligibility")
}

func TestCommitRescheduleValidation(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	e := newTestEngine(s)

	_, err := e.CommitReschedule(context.Background(), appt.ID, monday, 1500, "", ActorStaff)
	requireRejection(t, err, KindValidation, "invalid_time")

	_, err = e.CommitReschedule(context.Background(), appt.ID, testNow.AddDate(0, 0, -1), 600, "", ActorStaff)
	requireRejection(t, err, KindValidation, "date_in_past")
}

func TestCommitRescheduleToEarlierTimeToday(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	e := newTestEngine(s)

	// The clock stands at 09:00; 07:00 today has already passed, exactly
	// as it would on a fresh booking.
	_, err := e.CommitReschedule(context.Background(), appt.ID, testNow, 420, "", ActorStaff)
	requireRejection(t, err, KindValidation, "time_in_past")

	stored, err := s.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, SameDate(appt.Date, stored.Date))
	assert.Equal(t, appt.StartMinute, stored.StartMinute)
}

func TestCancelAppointmentOutsideWindow(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	e := newTestEngine(s)

	cancelled, err := e.CancelAppointment(context.Background(), appt.ID, "feeling better", ActorPatient)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "feeling better", cancelled.CancellationReason)
	assert.False(t, cancelled.CancelledLate)
}

func TestCancelAppointmentPatientInsideWindowRejected(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 10)
	e := newTestEngine(s)

	_, err := e.CancelAppointment(context.Background(), appt.ID, "", ActorPatient)
	requireRejection(t, err, KindPolicyViolation, "outside_reschedule_window")

	stored, err := s.AppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestCancelAppointmentStaffInsideWindowMarksLate(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 10)
	e := newTestEngine(s)

	cancelled, err := e.CancelAppointment(context.Background(), appt.ID, "patient called", ActorStaff)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	// Inside the 24-hour window, so the reliability scorer hears about it.
	assert.True(t, cancelled.CancelledLate)
}

func TestCancelAppointmentClearsPlanReference(t *testing.T) {
	s := seedNetwork()
	plan := s.addPlan(models.TreatmentPlan{
		PatientID:     "patient-1",
		ClinicID:      "clinic-1",
		DoctorID:      "doc-1",
		Category:      "endodontics",
		Status:        models.PlanActive,
		PlannedVisits: 3,
	})
	appt := appointmentIn(s, 72)
	appt.TreatmentPlanID = &plan.ID
	plan.NextVisitAppointmentID = &appt.ID
	e := newTestEngine(s)

	_, err := e.CancelAppointment(context.Background(), appt.ID, "", ActorPatient)
	require.NoError(t, err)

	// The plan survives with its weak reference cleared; nothing cascades.
	updated, err := s.TreatmentPlanByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanActive, updated.Status)
	assert.Nil(t, updated.NextVisitAppointmentID)
}

func TestCancelAppointmentAlreadyCancelled(t *testing.T) {
	s := seedNetwork()
	appt := appointmentIn(s, 72)
	appt.Status = models.StatusCancelled
	e := newTestEngine(s)

	_, err := e.CancelAppointment(context.Background(), appt.ID, "", ActorStaff)
	requireRejection(t, err, KindPolicyViolation, "outside_reschedule_window")
}
