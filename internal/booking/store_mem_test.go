package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dental-booking-server/internal/config"
	"dental-booking-server/internal/models"
)

// memStore is the in-memory Store used by the engine tests. Transaction
// serializes committing work the way the database boundary does in
// production.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	clinics       map[string]models.Clinic
	doctors       map[string]models.Doctor
	doctorClinics []models.DoctorClinic
	windows       []models.ScheduleWindow
	services      map[string]models.Service
	appointments  map[string]*models.Appointment
	plans         map[string]*models.TreatmentPlan

	// failNext fails that many subsequent store calls, for the
	// fail-closed and retry paths.
	failNext int
	// failAfter lets failAfter-1 store calls through and fails the next
	// one, for breaking a transaction partway in.
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{
		clinics:      make(map[string]models.Clinic),
		doctors:      make(map[string]models.Doctor),
		services:     make(map[string]models.Service),
		appointments: make(map[string]*models.Appointment),
		plans:        make(map[string]*models.TreatmentPlan),
	}
}

var errStoreDown = errors.New("store unreachable")

func (s *memStore) maybeFail() error {
	if s.failNext > 0 {
		s.failNext--
		return errStoreDown
	}
	if s.failAfter > 0 {
		s.failAfter--
		if s.failAfter == 0 {
			return errStoreDown
		}
	}
	return nil
}

func (s *memStore) ClinicByID(_ context.Context, id string) (*models.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	clinic, ok := s.clinics[id]
	if !ok {
		return nil, nil
	}
	return &clinic, nil
}

func (s *memStore) DoctorByID(_ context.Context, id string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	doctor, ok := s.doctors[id]
	if !ok {
		return nil, nil
	}
	return &doctor, nil
}

func (s *memStore) DoctorWorksAt(_ context.Context, doctorID, clinicID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return false, err
	}
	for _, dc := range s.doctorClinics {
		if dc.DoctorID == doctorID && dc.ClinicID == clinicID && dc.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ScheduleWindows(_ context.Context, doctorID string, weekday time.Weekday) ([]models.ScheduleWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.ScheduleWindow
	for _, w := range s.windows {
		if w.DoctorID == doctorID && w.Weekday == int(weekday) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *memStore) ServicesByIDs(_ context.Context, ids []string) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.Service
	for _, id := range ids {
		if svc, ok := s.services[id]; ok {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *memStore) ActiveServicesByCategory(_ context.Context, category string) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.Service
	for _, svc := range s.services {
		if svc.Category == category && svc.IsActive {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *memStore) AppointmentByID(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	appt, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *appt
	return &copied, nil
}

func (s *memStore) OpenAppointmentsForDoctor(_ context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.Appointment
	for _, appt := range s.appointments {
		if appt.DoctorID == doctorID && SameDate(appt.Date, date) && appt.IsOpen() {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (s *memStore) OpenAppointmentForPatientOn(_ context.Context, patientID string, date time.Time, excludeID string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	for _, appt := range s.appointments {
		if appt.PatientID == patientID && SameDate(appt.Date, date) && appt.IsOpen() && appt.ID != excludeID {
			copied := *appt
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) CountOpenAppointments(_ context.Context, patientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return 0, err
	}
	var count int64
	for _, appt := range s.appointments {
		if appt.PatientID == patientID && appt.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (s *memStore) CountOpenAppointmentsAtClinic(_ context.Context, patientID, clinicID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return 0, err
	}
	var count int64
	for _, appt := range s.appointments {
		if appt.PatientID == patientID && appt.ClinicID == clinicID && appt.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (s *memStore) HistoryCounts(_ context.Context, patientID, clinicID string) (HistoryCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts HistoryCounts
	if err := s.maybeFail(); err != nil {
		return counts, err
	}
	for _, appt := range s.appointments {
		if appt.PatientID != patientID || appt.ClinicID != clinicID || appt.IsOpen() {
			continue
		}
		counts.Total++
		switch appt.Status {
		case models.StatusCompleted:
			counts.Completed++
		case models.StatusNoShow:
			counts.NoShow++
		case models.StatusCancelled:
			if appt.CancelledLate {
				counts.CancelledLate++
			}
		}
	}
	return counts, nil
}

func (s *memStore) TreatmentPlanByID(_ context.Context, id string) (*models.TreatmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	plan, ok := s.plans[id]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (s *memStore) ActivePlansForPatient(_ context.Context, patientID string) ([]models.TreatmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}
	var out []models.TreatmentPlan
	for _, plan := range s.plans {
		if plan.PatientID == patientID && plan.Status == models.PlanActive {
			out = append(out, *plan)
		}
	}
	return out, nil
}

func (s *memStore) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return err
	}
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	copied := *appt
	s.appointments[appt.ID] = &copied
	return nil
}

func (s *memStore) SaveAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return err
	}
	copied := *appt
	s.appointments[appt.ID] = &copied
	return nil
}

func (s *memStore) SaveTreatmentPlan(_ context.Context, plan *models.TreatmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return err
	}
	copied := *plan
	s.plans[plan.ID] = &copied
	return nil
}

// Transaction mirrors the database boundary: writes made by fn are rolled
// back when fn returns an error, so a rejected commit leaves no rows behind.
func (s *memStore) Transaction(_ context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	appointments, plans := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(appointments, plans)
		return err
	}
	return nil
}

func (s *memStore) snapshot() (map[string]*models.Appointment, map[string]*models.TreatmentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments := make(map[string]*models.Appointment, len(s.appointments))
	for id, appt := range s.appointments {
		copied := *appt
		appointments[id] = &copied
	}
	plans := make(map[string]*models.TreatmentPlan, len(s.plans))
	for id, plan := range s.plans {
		copied := *plan
		plans[id] = &copied
	}
	return appointments, plans
}

func (s *memStore) restore(appointments map[string]*models.Appointment, plans map[string]*models.TreatmentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = appointments
	s.plans = plans
}

// Seed helpers.

func (s *memStore) addClinic(id, name string, policyHours, limitPerPatient int) {
	s.clinics[id] = models.Clinic{
		BaseModel:                  models.BaseModel{ID: id},
		Name:                       name,
		CancellationPolicyHours:    policyHours,
		AppointmentLimitPerPatient: limitPerPatient,
		IsActive:                   true,
	}
}

func (s *memStore) addDoctor(id, clinicID, specialty string, available bool) {
	s.doctors[id] = models.Doctor{
		BaseModel:   models.BaseModel{ID: id},
		Specialty:   specialty,
		IsAvailable: available,
	}
	s.doctorClinics = append(s.doctorClinics, models.DoctorClinic{
		DoctorID: id,
		ClinicID: clinicID,
		IsActive: true,
	})
}

func (s *memStore) addWindow(doctorID string, weekday time.Weekday, startMinute, endMinute int) {
	s.windows = append(s.windows, models.ScheduleWindow{
		DoctorID:    doctorID,
		Weekday:     int(weekday),
		StartMinute: startMinute,
		EndMinute:   endMinute,
	})
}

func (s *memStore) addService(id, category string, duration int, direct, active bool) {
	s.services[id] = models.Service{
		BaseModel:           models.BaseModel{ID: id},
		Name:                id,
		Category:            category,
		DurationMinutes:     duration,
		AllowsDirectBooking: direct,
		IsActive:            active,
	}
}

func (s *memStore) addAppointment(appt models.Appointment) *models.Appointment {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.DurationMinutes == 0 {
		appt.DurationMinutes = 30
	}
	s.appointments[appt.ID] = &appt
	return s.appointments[appt.ID]
}

func (s *memStore) addPlan(plan models.TreatmentPlan) *models.TreatmentPlan {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	s.plans[plan.ID] = &plan
	return s.plans[plan.ID]
}

// Test harness.

// testNow is the frozen clock for every engine test: 09:00 on Saturday,
// 2025-03-01.
var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// monday is a future working day relative to testNow.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		MaxTotalPending:             3,
		SlotIntervalMinutes:         30,
		DefaultConsultationMinutes:  30,
		HighRiskNoShowRatio:         0.30,
		ModerateRiskNoShowRatio:     0.15,
		MinHistoryForScoring:        3,
		RequireHighRiskConfirmation: true,
	}
}

func newTestEngine(s Store) *Engine {
	e := New(s, nil, testBookingConfig(), zerolog.Nop())
	e.now = func() time.Time { return testNow }
	return e
}

// seedNetwork builds the two-clinic fixture most tests run against.
// doc-1 and doc-2 both work 09:00-12:00 on Mondays.
func seedNetwork() *memStore {
	s := newMemStore()
	s.addClinic("clinic-1", "Downtown Dental", 24, 2)
	s.addClinic("clinic-2", "Riverside Dental", 48, 1)
	s.addDoctor("doc-1", "clinic-1", "general", true)
	s.addDoctor("doc-2", "clinic-2", "general", true)
	s.addWindow("doc-1", time.Monday, 540, 720)
	s.addWindow("doc-2", time.Monday, 540, 720)
	s.addService("svc-cleaning", "hygiene", 30, true, true)
	s.addService("svc-whitening", "cosmetic", 60, true, true)
	s.addService("svc-root-canal", "endodontics", 60, false, true)
	return s
}

// seedHistory adds closed appointments so the reliability scorer has
// signal. The dates are far in the past and never collide with the live
// fixtures.
func seedHistory(s *memStore, patientID, clinicID string, completed, noShow, lateCancelled int) {
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	add := func(status models.AppointmentStatus, late bool) {
		s.addAppointment(models.Appointment{
			PatientID:     patientID,
			ClinicID:      clinicID,
			DoctorID:      "doc-1",
			Date:          day,
			StartMinute:   540,
			Status:        status,
			CancelledLate: late,
		})
		day = day.AddDate(0, 0, 1)
	}
	for i := 0; i < completed; i++ {
		add(models.StatusCompleted, false)
	}
	for i := 0; i < noShow; i++ {
		add(models.StatusNoShow, false)
	}
	for i := 0; i < lateCancelled; i++ {
		add(models.StatusCancelled, true)
	}
}
