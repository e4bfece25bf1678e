package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"dental-booking-server/internal/booking"
	"dental-booking-server/internal/middleware"
	"dental-booking-server/internal/models"
	"dental-booking-server/internal/utils"
)

// TreatmentPlanHandler manages multi-visit treatment plans and their
// follow-up booking templates.
type TreatmentPlanHandler struct {
	DB     *gorm.DB
	Engine *booking.Engine
}

// NewTreatmentPlanHandler creates a new TreatmentPlanHandler.
func NewTreatmentPlanHandler(db *gorm.DB, engine *booking.Engine) *TreatmentPlanHandler {
	return &TreatmentPlanHandler{DB: db, Engine: engine}
}

// CreateTreatmentPlanRequest represents the request body for creating a treatment plan.
type CreateTreatmentPlanRequest struct {
	PatientID            string `json:"patientId" binding:"required,uuid"`
	ClinicID             string `json:"clinicId" binding:"required,uuid"`
	DoctorID             string `json:"doctorId" binding:"required,uuid"`
	Category             string `json:"category" binding:"required"`
	PlannedVisits        int    `json:"plannedVisits" binding:"required,min=1"`
	FollowUpIntervalDays int    `json:"followUpIntervalDays" binding:"min=0"`
}

// CreateTreatmentPlan creates a plan after a qualifying appointment.
// Staff-only; the route enforces the role.
func (h *TreatmentPlanHandler) CreateTreatmentPlan(c *gin.Context) {
	var req CreateTreatmentPlanRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	// Verify the referenced patient and doctor exist before creating.
	var patient models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return
	}

	plan := models.TreatmentPlan{
		PatientID:            req.PatientID,
		ClinicID:             req.ClinicID,
		DoctorID:             req.DoctorID,
		Category:             req.Category,
		Status:               models.PlanActive,
		PlannedVisits:        req.PlannedVisits,
		FollowUpIntervalDays: req.FollowUpIntervalDays,
	}
	if plan.FollowUpIntervalDays == 0 {
		plan.FollowUpIntervalDays = 14
	}

	if err := h.DB.Create(&plan).Error; err != nil {
		utils.InternalServerError(c, "Failed to create treatment plan: "+err.Error())
		return
	}
	utils.Created(c, "Treatment plan created successfully", plan)
}

// GetTreatmentPlansForUser lists plans: a patient sees their own, staff see
// all (optionally by clinic).
func (h *TreatmentPlanHandler) GetTreatmentPlansForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Order("created_at desc")
	if userRole == models.RolePatient {
		query = query.Where("patient_id = ?", userID)
	} else if clinicID := c.Query("clinicId"); clinicID != "" {
		query = query.Where("clinic_id = ?", clinicID)
	}

	var plans []models.TreatmentPlan
	if err := query.Find(&plans).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch treatment plans: "+err.Error())
		return
	}
	utils.Success(c, "Treatment plans fetched successfully", plans)
}

// UpdateTreatmentPlanStatusRequest represents the request body for pausing,
// resuming or closing a plan.
type UpdateTreatmentPlanStatusRequest struct {
	Status models.TreatmentPlanStatus `json:"status" binding:"required,oneof=active paused completed cancelled"`
}

// UpdateTreatmentPlanStatus lets staff pause/resume/close a plan. Terminal
// plans cannot be reopened.
func (h *TreatmentPlanHandler) UpdateTreatmentPlanStatus(c *gin.Context) {
	planID := c.Param("id")
	if _, err := uuid.Parse(planID); err != nil {
		utils.BadRequest(c, "Invalid Treatment Plan ID format")
		return
	}

	var req UpdateTreatmentPlanStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var plan models.TreatmentPlan
	if err := h.DB.First(&plan, "id = ?", planID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Treatment plan not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if plan.IsTerminal() {
		utils.Conflict(c, "A "+string(plan.Status)+" treatment plan cannot change status")
		return
	}

	plan.Status = req.Status
	if err := h.DB.Save(&plan).Error; err != nil {
		utils.InternalServerError(c, "Failed to update treatment plan: "+err.Error())
		return
	}
	utils.Success(c, "Treatment plan updated successfully", plan)
}

// GetFollowUpTemplate returns the pre-filled follow-up booking data for a
// plan, or the structured reason follow-up booking is blocked.
func (h *TreatmentPlanHandler) GetFollowUpTemplate(c *gin.Context) {
	planID := c.Param("id")
	if _, err := uuid.Parse(planID); err != nil {
		utils.BadRequest(c, "Invalid Treatment Plan ID format")
		return
	}

	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient {
		userID, _ := middleware.GetUserIDFromContext(c)
		var plan models.TreatmentPlan
		if err := h.DB.Select("patient_id").First(&plan, "id = ?", planID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFound(c, "Treatment plan not found")
			} else {
				utils.InternalServerError(c, "Database error: "+err.Error())
			}
			return
		}
		if plan.PatientID != userID {
			utils.Forbidden(c, "You are not authorized to view this treatment plan")
			return
		}
	}

	template, err := h.Engine.GetFollowUpTemplate(c.Request.Context(), planID)
	if err != nil {
		respondRejection(c, err)
		return
	}
	utils.Success(c, "Follow-up template built successfully", template)
}
