package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// BookingRequest is the input to CommitAppointment.
type BookingRequest struct {
	PatientID   string
	ClinicID    string
	DoctorID    string
	ServiceIDs  []string
	Date        time.Time
	StartMinute int
	Symptoms    string
	// TreatmentPlanID links the new appointment to a plan as its next
	// visit.
	TreatmentPlanID string
	// AcknowledgeRisk confirms a high-risk booking when the confirmation
	// policy is enabled.
	AcknowledgeRisk bool
}

// CommitAppointment is the single enforcement point for booking. The
// advisory checks callers ran while composing the request are repeated here
// under the per-patient and per-doctor-day locks, inside one store
// transaction, so two concurrent attempts for the same patient-day or
// doctor-slot cannot both succeed. On success the appointment is created in
// pending and a notification is dispatched fire-and-forget.
func (e *Engine) CommitAppointment(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if err := e.validateBookingRequest(ctx, &req); err != nil {
		return nil, err
	}

	services, durationMinutes, err := e.resolveServices(ctx, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	// Consultation requirement and the advisory risk gate run outside the
	// locks: neither depends on contended state.
	requirement, err := e.ResolveConsultationRequirement(ctx, req.PatientID, req.ServiceIDs, req.ClinicID, req.TreatmentPlanID)
	if err != nil {
		return nil, err
	}
	if !requirement.CanSkipConsultation {
		return nil, consultationRejection(requirement)
	}

	if e.cfg.RequireHighRiskConfirmation && !req.AcknowledgeRisk {
		snapshot, err := e.ComputeReliability(ctx, req.PatientID, req.ClinicID)
		if err != nil {
			return nil, err
		}
		if snapshot.Tier == TierHighRisk {
			return nil, riskConfirmationRejection(snapshot)
		}
	}

	release := e.locks.acquire(
		patientKey(req.PatientID),
		doctorDayKey(req.DoctorID, FormatDate(req.Date)),
	)
	defer release()

	appt := &models.Appointment{
		PatientID:       req.PatientID,
		ClinicID:        req.ClinicID,
		DoctorID:        req.DoctorID,
		Date:            DateOnly(req.Date),
		StartMinute:     req.StartMinute,
		DurationMinutes: durationMinutes,
		Status:          models.StatusPending,
		Symptoms:        req.Symptoms,
		Services:        services,
	}

	commit := func() error {
		return e.store.Transaction(ctx, func(tx Store) error {
			return e.commitChecked(ctx, tx, appt, req)
		})
	}

	err = commit()
	if rej, ok := AsRejection(err); ok && rej.Kind == KindInfrastructure {
		// One immediate retry for transient store failures only; policy
		// rejections are final until the caller changes the request.
		err = commit()
	}
	if err != nil {
		e.log.Warn().
			Str("patient_id", req.PatientID).
			Str("doctor_id", req.DoctorID).
			Str("date", FormatDate(req.Date)).
			Err(err).
			Msg("booking rejected")
		return nil, err
	}

	e.log.Info().
		Str("appointment_id", appt.ID).
		Str("patient_id", appt.PatientID).
		Str("clinic_id", appt.ClinicID).
		Str("doctor_id", appt.DoctorID).
		Str("date", FormatDate(appt.Date)).
		Str("start", FormatMinute(appt.StartMinute)).
		Msg("appointment committed")
	e.dispatch("appointment.created", appt)
	return appt, nil
}

// commitChecked re-runs the three hard gates inside the transaction and, if
// they all pass, inserts the appointment and links the treatment plan.
func (e *Engine) commitChecked(ctx context.Context, tx Store, appt *models.Appointment, req BookingRequest) error {
	open, err := e.slotStillOpen(ctx, tx, appt)
	if err != nil {
		return err
	}
	if !open {
		return &Rejection{
			Kind:       KindResourceUnavailable,
			Type:       "slot_taken",
			Title:      "Slot no longer available",
			Message:    "The selected time was booked while this request was being composed.",
			Suggestion: "Choose a different time from the refreshed availability.",
		}
	}

	conflict, err := e.checkConflictWith(ctx, tx, req.PatientID, appt.Date, "", req.ClinicID)
	if err != nil {
		return err
	}
	if conflict.HasConflict {
		return conflictRejection(conflict)
	}

	limits, err := e.checkLimitsWith(ctx, tx, req.PatientID, req.ClinicID)
	if err != nil {
		return err
	}
	if !limits.Allowed {
		return limitRejection(limits)
	}

	if err := tx.CreateAppointment(ctx, appt); err != nil {
		return infraError("create appointment", err)
	}

	if req.TreatmentPlanID != "" {
		if err := e.linkNextVisit(ctx, tx, req.TreatmentPlanID, appt); err != nil {
			return err
		}
	}
	return nil
}

// slotStillOpen verifies the requested interval sits inside a working
// window and clear of every open appointment of the doctor.
func (e *Engine) slotStillOpen(ctx context.Context, tx Store, appt *models.Appointment) (bool, error) {
	windows, err := tx.ScheduleWindows(ctx, appt.DoctorID, appt.Date.Weekday())
	if err != nil {
		return false, infraError("load schedule windows", err)
	}
	inWindow := false
	for _, w := range windows {
		if appt.StartMinute >= w.StartMinute && appt.EndMinute() <= w.EndMinute {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false, nil
	}

	booked, err := tx.OpenAppointmentsForDoctor(ctx, appt.DoctorID, appt.Date)
	if err != nil {
		return false, infraError("load doctor appointments", err)
	}
	for i := range booked {
		if booked[i].ID == appt.ID {
			continue
		}
		if booked[i].OverlapsInterval(appt.StartMinute, appt.DurationMinutes) {
			return false, nil
		}
	}
	return true, nil
}

// checkConflictWith is CheckSameDayConflict against an arbitrary store view
// (the transaction during commit).
func (e *Engine) checkConflictWith(ctx context.Context, s Store, patientID string, date time.Time, excludeID, clinicID string) (ConflictResult, error) {
	existing, err := s.OpenAppointmentForPatientOn(ctx, patientID, date, excludeID)
	if err != nil {
		return ConflictResult{}, infraError("check same-day conflict", err)
	}
	if existing == nil {
		return ConflictResult{}, nil
	}
	return ConflictResult{
		HasConflict:   true,
		AppointmentID: existing.ID,
		ClinicID:      existing.ClinicID,
		DoctorID:      existing.DoctorID,
		Date:          FormatDate(existing.Date),
		Start:         FormatMinute(existing.StartMinute),
		Status:        existing.Status,
		SameClinic:    clinicID != "" && existing.ClinicID == clinicID,
	}, nil
}

func (e *Engine) checkLimitsWith(ctx context.Context, s Store, patientID, clinicID string) (BookingLimitState, error) {
	clinic, err := s.ClinicByID(ctx, clinicID)
	if err != nil {
		return BookingLimitState{}, infraError("load clinic", err)
	}
	if clinic == nil {
		return BookingLimitState{}, validationError("clinic_not_found", "clinic does not exist")
	}
	total, err := s.CountOpenAppointments(ctx, patientID)
	if err != nil {
		return BookingLimitState{}, infraError("count open appointments", err)
	}
	atClinic, err := s.CountOpenAppointmentsAtClinic(ctx, patientID, clinicID)
	if err != nil {
		return BookingLimitState{}, infraError("count clinic appointments", err)
	}
	state := BookingLimitState{
		TotalPending:     int(total),
		MaxTotalPending:  e.cfg.MaxTotalPending,
		ClinicPending:    int(atClinic),
		MaxClinicPending: clinic.AppointmentLimitPerPatient,
		Allowed:          true,
		Reason:           LimitOK,
	}
	if state.TotalPending >= state.MaxTotalPending {
		state.Allowed = false
		state.Reason = LimitNetworkReached
	} else if state.ClinicPending >= state.MaxClinicPending {
		state.Allowed = false
		state.Reason = LimitClinicReached
	}
	return state, nil
}

// validateBookingRequest checks shape and referential validity before any
// policy evaluation.
func (e *Engine) validateBookingRequest(ctx context.Context, req *BookingRequest) error {
	if req.PatientID == "" {
		return validationError("missing_patient", "patient is required")
	}
	if req.ClinicID == "" {
		return validationError("missing_clinic", "clinic is required")
	}
	if req.DoctorID == "" {
		return validationError("missing_doctor", "doctor is required")
	}
	if !validMinute(req.StartMinute) {
		return validationError("invalid_time", "start time is out of range")
	}

	if err := e.validateSlotTiming(req.Date, req.StartMinute); err != nil {
		return err
	}

	doctor, err := e.store.DoctorByID(ctx, req.DoctorID)
	if err != nil {
		return infraError("load doctor", err)
	}
	if doctor == nil {
		return validationError("doctor_not_found", "doctor does not exist")
	}
	if !doctor.IsAvailable {
		return &Rejection{
			Kind:       KindResourceUnavailable,
			Type:       "doctor_unavailable",
			Title:      "Doctor unavailable",
			Message:    "The selected doctor is not currently accepting appointments.",
			Suggestion: "Choose another doctor at this clinic.",
		}
	}

	worksAt, err := e.store.DoctorWorksAt(ctx, req.DoctorID, req.ClinicID)
	if err != nil {
		return infraError("check doctor clinic", err)
	}
	if !worksAt {
		return validationError("doctor_not_at_clinic", "doctor does not practice at the selected clinic")
	}
	return nil
}

// resolveServices loads the selected services and derives the total visit
// duration, defaulting to a bare consultation when none are selected.
func (e *Engine) resolveServices(ctx context.Context, serviceIDs []string) ([]models.Service, int, error) {
	if len(serviceIDs) == 0 {
		return nil, e.cfg.DefaultConsultationMinutes, nil
	}
	services, err := e.store.ServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, 0, infraError("load services", err)
	}
	if len(services) != len(serviceIDs) {
		return nil, 0, validationError("service_not_found", "one or more selected services do not exist")
	}
	total := 0
	for _, svc := range services {
		if !svc.IsActive {
			return nil, 0, validationError("service_inactive", "service "+svc.Name+" is not currently offered")
		}
		total += svc.DurationMinutes
	}
	if total <= 0 {
		total = e.cfg.DefaultConsultationMinutes
	}
	return services, total, nil
}
