package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"dental-booking-server/internal/models"
	"dental-booking-server/internal/utils"
)

// CatalogHandler serves the clinic/doctor/service listings the booking
// wizard steps through.
type CatalogHandler struct {
	DB *gorm.DB
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

// GetClinics lists the active clinics of the network.
func (h *CatalogHandler) GetClinics(c *gin.Context) {
	var clinics []models.Clinic
	if err := h.DB.Where("is_active = ?", true).Order("name asc").Find(&clinics).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch clinics: "+err.Error())
		return
	}
	utils.Success(c, "Clinics fetched successfully", clinics)
}

// GetClinicDoctors lists the doctors actively practicing at a clinic.
func (h *CatalogHandler) GetClinicDoctors(c *gin.Context) {
	clinicIDStr := c.Param("id")
	if _, err := uuid.Parse(clinicIDStr); err != nil {
		utils.BadRequest(c, "Invalid Clinic ID format")
		return
	}

	var doctors []models.Doctor
	err := h.DB.
		Joins("JOIN doctor_clinics ON doctor_clinics.doctor_id = doctors.id").
		Where("doctor_clinics.clinic_id = ? AND doctor_clinics.is_active = ? AND doctors.is_available = ?",
			clinicIDStr, true, true).
		Order("doctors.last_name asc").
		Find(&doctors).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetServices lists active services, optionally filtered by category.
func (h *CatalogHandler) GetServices(c *gin.Context) {
	query := h.DB.Where("is_active = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var services []models.Service
	if err := query.Order("name asc").Find(&services).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch services: "+err.Error())
		return
	}
	utils.Success(c, "Services fetched successfully", services)
}
