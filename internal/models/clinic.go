package models

// Clinic represents a single branch of the dental network.
type Clinic struct {
	BaseModel
	Name    string `gorm:"size:255;not null" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	Phone   string `gorm:"size:30" json:"phone,omitempty"`

	// CancellationPolicyHours is the minimum lead time, in hours, before a
	// patient may cancel or reschedule an appointment at this clinic.
	CancellationPolicyHours int `gorm:"default:24" json:"cancellationPolicyHours"`

	// AppointmentLimitPerPatient is the maximum number of pending/confirmed
	// appointments a single patient may hold at this clinic. The
	// network-wide ceiling is a shared configuration constant.
	AppointmentLimitPerPatient int `gorm:"default:2" json:"appointmentLimitPerPatient"`

	IsActive bool `gorm:"default:true" json:"isActive"`
}
