package booking

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dental-booking-server/internal/models"
)

// gormStore backs the policy engine with the application's gorm connection.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection as a booking Store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) ClinicByID(ctx context.Context, id string) (*models.Clinic, error) {
	var clinic models.Clinic
	err := s.db.WithContext(ctx).First(&clinic, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (s *gormStore) DoctorByID(ctx context.Context, id string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.db.WithContext(ctx).First(&doctor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *gormStore) DoctorWorksAt(ctx context.Context, doctorID, clinicID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DoctorClinic{}).
		Where("doctor_id = ? AND clinic_id = ? AND is_active = ?", doctorID, clinicID, true).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) ScheduleWindows(ctx context.Context, doctorID string, weekday time.Weekday) ([]models.ScheduleWindow, error) {
	var windows []models.ScheduleWindow
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND weekday = ?", doctorID, int(weekday)).
		Order("start_minute asc").
		Find(&windows).Error
	return windows, err
}

func (s *gormStore) ServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	var services []models.Service
	if len(ids) == 0 {
		return services, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&services).Error
	return services, err
}

func (s *gormStore) ActiveServicesByCategory(ctx context.Context, category string) ([]models.Service, error) {
	var services []models.Service
	err := s.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("name asc").
		Find(&services).Error
	return services, err
}

func (s *gormStore) AppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).Preload("Services").First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *gormStore) OpenAppointmentsForDoctor(ctx context.Context, doctorID string, date time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND status IN ?", doctorID, DateOnly(date), models.OpenStatuses).
		Order("start_minute asc").
		Find(&appts).Error
	return appts, err
}

func (s *gormStore) OpenAppointmentForPatientOn(ctx context.Context, patientID string, date time.Time, excludeID string) (*models.Appointment, error) {
	query := s.db.WithContext(ctx).
		Where("patient_id = ? AND date = ? AND status IN ?", patientID, DateOnly(date), models.OpenStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var appt models.Appointment
	err := query.First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *gormStore) CountOpenAppointments(ctx context.Context, patientID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("patient_id = ? AND status IN ?", patientID, models.OpenStatuses).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CountOpenAppointmentsAtClinic(ctx context.Context, patientID, clinicID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("patient_id = ? AND clinic_id = ? AND status IN ?", patientID, clinicID, models.OpenStatuses).
		Count(&count).Error
	return count, err
}

func (s *gormStore) HistoryCounts(ctx context.Context, patientID, clinicID string) (HistoryCounts, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Appointment{}).
			Where("patient_id = ? AND clinic_id = ?", patientID, clinicID)
	}

	var counts HistoryCounts
	if err := base().Where("status = ?", models.StatusCompleted).Count(&counts.Completed).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ?", models.StatusNoShow).Count(&counts.NoShow).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ? AND cancelled_late = ?", models.StatusCancelled, true).Count(&counts.CancelledLate).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status NOT IN ?", models.OpenStatuses).Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (s *gormStore) TreatmentPlanByID(ctx context.Context, id string) (*models.TreatmentPlan, error) {
	var plan models.TreatmentPlan
	err := s.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *gormStore) ActivePlansForPatient(ctx context.Context, patientID string) ([]models.TreatmentPlan, error) {
	var plans []models.TreatmentPlan
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, models.PlanActive).
		Find(&plans).Error
	return plans, err
}

func (s *gormStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Create(appt).Error
}

func (s *gormStore) SaveAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Save(appt).Error
}

func (s *gormStore) SaveTreatmentPlan(ctx context.Context, plan *models.TreatmentPlan) error {
	return s.db.WithContext(ctx).Save(plan).Error
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
