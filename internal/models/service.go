package models

// Service represents a bookable dental service.
type Service struct {
	BaseModel
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	// Category groups services under a treatment category, matching
	// Doctor.Specialty and TreatmentPlan.Category.
	Category        string `gorm:"size:100;index" json:"category"`
	DurationMinutes int    `gorm:"default:30" json:"durationMinutes"`

	// AllowsDirectBooking marks services a patient may book without a
	// prior consultation visit.
	AllowsDirectBooking    bool `gorm:"default:false" json:"allowsDirectBooking"`
	RequiresMultipleVisits bool `gorm:"default:false" json:"requiresMultipleVisits"`
	TypicalVisitCount      int  `gorm:"default:1" json:"typicalVisitCount"`
	IsActive               bool `gorm:"default:true" json:"isActive"`
}
