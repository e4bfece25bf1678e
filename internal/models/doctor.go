package models

// Doctor represents a practitioner who can be booked across the network.
type Doctor struct {
	BaseModel
	FirstName string `gorm:"size:100" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName"`
	// Specialty is the treatment category the doctor covers, e.g.
	// "orthodontics" or "general".
	Specialty   string `gorm:"size:100;index" json:"specialty"`
	IsAvailable bool   `gorm:"default:true" json:"isAvailable"`

	// Relations
	Clinics         []DoctorClinic   `gorm:"foreignKey:DoctorID" json:"-"`
	ScheduleWindows []ScheduleWindow `gorm:"foreignKey:DoctorID" json:"-"`
}

// DoctorClinic is the active/inactive relationship record between a doctor
// and a clinic.
type DoctorClinic struct {
	BaseModel
	DoctorID string `gorm:"size:36;index;not null" json:"doctorId"`
	ClinicID string `gorm:"size:36;index;not null" json:"clinicId"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"-"`
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"-"`
}

// ScheduleWindow is one weekly recurring working window for a doctor at a
// clinic. Times are minutes from midnight in clinic-local time.
type ScheduleWindow struct {
	BaseModel
	DoctorID string `gorm:"size:36;index;not null" json:"doctorId"`
	ClinicID string `gorm:"size:36;index" json:"clinicId"`
	// Weekday follows time.Weekday numbering (Sunday = 0).
	Weekday     int `gorm:"not null" json:"weekday"`
	StartMinute int `gorm:"not null" json:"startMinute"`
	EndMinute   int `gorm:"not null" json:"endMinute"`
}
