package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"dental-booking-server/internal/booking"
	"dental-booking-server/internal/middleware"
	"dental-booking-server/internal/models"
	"dental-booking-server/internal/utils"
)

// AppointmentHandler exposes the booking policy engine over HTTP.
type AppointmentHandler struct {
	DB     *gorm.DB
	Engine *booking.Engine
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, engine *booking.Engine) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Engine: engine}
}

// respondRejection maps the engine's structured rejections onto HTTP. The
// rejection payload is passed through so the client can render the specific
// remediation (view conflicting appointment, pick another time, ...).
func respondRejection(c *gin.Context, err error) {
	rej, ok := booking.AsRejection(err)
	if !ok {
		utils.InternalServerError(c, err.Error())
		return
	}
	switch rej.Kind {
	case booking.KindValidation:
		utils.ErrorWithData(c, 400, rej.Message, rej)
	case booking.KindAccessDenied:
		utils.ErrorWithData(c, 403, rej.Message, rej)
	case booking.KindPolicyViolation, booking.KindResourceUnavailable:
		utils.ErrorWithData(c, 409, rej.Message, rej)
	case booking.KindInfrastructure:
		utils.ErrorWithData(c, 503, rej.Message, rej)
	default:
		utils.InternalServerError(c, rej.Message)
	}
}

// actorFromContext maps the authenticated role to the policy gate's actor.
func actorFromContext(c *gin.Context) booking.ActorRole {
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RoleStaff || role == models.RoleAdmin {
		return booking.ActorStaff
	}
	return booking.ActorPatient
}

// GetAvailability returns the bookable slots for a doctor on a date.
func (h *AppointmentHandler) GetAvailability(c *gin.Context) {
	doctorID := c.Query("doctorId")
	if _, err := uuid.Parse(doctorID); err != nil {
		utils.BadRequest(c, "Invalid Doctor ID format")
		return
	}

	date, err := booking.ParseDate(c.Query("date"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if err := h.Engine.ValidateDate(date); err != nil {
		respondRejection(c, err)
		return
	}

	duration := 0
	if d := c.Query("duration"); d != "" {
		duration, err = strconv.Atoi(d)
		if err != nil || duration < 0 {
			utils.BadRequest(c, "Invalid duration: must be a number of minutes")
			return
		}
	}

	slots, err := h.Engine.ComputeAvailableSlots(c.Request.Context(), doctorID, date, duration)
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Availability computed successfully", slots)
}

// PrecheckBooking bundles the advisory checks the client runs while the
// patient is still composing a booking. Results may go stale; the commit
// re-checks everything under the consistency boundary.
func (h *AppointmentHandler) PrecheckBooking(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	clinicID := c.Query("clinicId")
	if _, err := uuid.Parse(clinicID); err != nil {
		utils.BadRequest(c, "Invalid Clinic ID format")
		return
	}
	date, err := booking.ParseDate(c.Query("date"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if err := h.Engine.ValidateDate(date); err != nil {
		respondRejection(c, err)
		return
	}

	ctx := c.Request.Context()
	conflict, err := h.Engine.CheckSameDayConflict(ctx, patientID, date, "", clinicID)
	if err != nil {
		respondRejection(c, err)
		return
	}
	limits, err := h.Engine.EvaluateBookingLimits(ctx, patientID, clinicID)
	if err != nil {
		respondRejection(c, err)
		return
	}
	reliability, err := h.Engine.ComputeReliability(ctx, patientID, clinicID)
	if err != nil {
		respondRejection(c, err)
		return
	}

	utils.Success(c, "Booking precheck completed", gin.H{
		"conflict":    conflict,
		"limits":      limits,
		"reliability": reliability,
	})
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	ClinicID        string   `json:"clinicId" binding:"required,uuid"`
	DoctorID        string   `json:"doctorId" binding:"required,uuid"`
	Date            string   `json:"date" binding:"required"`
	Start           string   `json:"start" binding:"required"`
	ServiceIDs      []string `json:"serviceIds"`
	Symptoms        string   `json:"symptoms"`
	TreatmentPlanID string   `json:"treatmentPlanId"`
	AcknowledgeRisk bool     `json:"acknowledgeRisk"`
}

// CreateAppointment commits a booking through the policy engine. The
// patient books for themselves; staff may book on a patient's behalf via
// the patientId query parameter.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if actorFromContext(c) == booking.ActorStaff {
		if onBehalfOf := c.Query("patientId"); onBehalfOf != "" {
			patientID = onBehalfOf
		}
	}

	date, err := booking.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	startMinute, err := booking.ParseMinute(req.Start)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appt, err := h.Engine.CommitAppointment(c.Request.Context(), booking.BookingRequest{
		PatientID:       patientID,
		ClinicID:        req.ClinicID,
		DoctorID:        req.DoctorID,
		ServiceIDs:      req.ServiceIDs,
		Date:            date,
		StartMinute:     startMinute,
		Symptoms:        req.Symptoms,
		TreatmentPlanID: req.TreatmentPlanID,
		AcknowledgeRisk: req.AcknowledgeRisk,
	})
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Created(c, "Appointment created successfully", appt)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var appointments []models.Appointment
	query := h.DB.Preload("Services").Order("date asc, start_minute asc")

	var err error
	switch userRole {
	case models.RolePatient:
		err = query.Where("patient_id = ?", userID).Find(&appointments).Error
	case models.RoleStaff, models.RoleAdmin:
		// Staff see the whole book, optionally narrowed to one clinic.
		if clinicID := c.Query("clinicId"); clinicID != "" {
			query = query.Where("clinic_id = ?", clinicID)
		}
		err = query.Find(&appointments).Error
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := h.DB.Preload("Services").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && userID != appointment.PatientID {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=confirmed completed no_show"`
}

// UpdateAppointmentStatus moves an appointment through the staff-side
// transitions (confirm, complete, no-show). Cancellation goes through the
// policy gate instead. The engine runs the status write and, on completion,
// the treatment plan bookkeeping in one transaction.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Engine.UpdateAppointmentStatus(c.Request.Context(), appointmentID, req.Status)
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Appointment status updated successfully", appointment)
}

// EvaluateReschedule reports whether the appointment may be moved or
// cancelled by the current actor under the clinic's policy.
func (h *AppointmentHandler) EvaluateReschedule(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	if !h.authorizedForAppointment(c, appointmentID) {
		return
	}

	eligibility, err := h.Engine.EvaluateReschedule(c.Request.Context(), appointmentID, actorFromContext(c))
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Reschedule eligibility evaluated", eligibility)
}

// RescheduleAppointmentRequest represents the request body for rescheduling an appointment.
type RescheduleAppointmentRequest struct {
	Date   string `json:"date" binding:"required"`
	Start  string `json:"start" binding:"required"`
	Reason string `json:"reason"`
}

// RescheduleAppointment moves an appointment to a new date/time through the
// policy gate. The appointment keeps its identity; no new record is created.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if !h.authorizedForAppointment(c, appointmentID) {
		return
	}

	date, err := booking.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	startMinute, err := booking.ParseMinute(req.Start)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appt, err := h.Engine.CommitReschedule(c.Request.Context(), appointmentID, date, startMinute, req.Reason, actorFromContext(c))
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Appointment rescheduled successfully", appt)
}

// CancelAppointmentRequest represents the request body for cancelling an appointment.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment cancels an appointment through the policy gate.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if !h.authorizedForAppointment(c, appointmentID) {
		return
	}

	appt, err := h.Engine.CancelAppointment(c.Request.Context(), appointmentID, req.Reason, actorFromContext(c))
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appt)
}

// authorizedForAppointment ensures a patient only touches their own
// appointments. Staff and admin pass. Writes the error response itself and
// returns false when access is denied.
func (h *AppointmentHandler) authorizedForAppointment(c *gin.Context, appointmentID string) bool {
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RoleStaff || userRole == models.RoleAdmin {
		return true
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	var appointment models.Appointment
	if err := h.DB.Select("patient_id").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return false
	}
	if appointment.PatientID != userID {
		utils.Forbidden(c, "You are not authorized to modify this appointment")
		return false
	}
	return true
}
