package booking

import (
	"time"
)

// FlowState is the tagged current state of the booking wizard.
type FlowState string

const (
	StateClinicSelection     FlowState = "clinic_selection"
	StateDoctorSelection     FlowState = "doctor_selection"
	StateServiceSelection    FlowState = "service_selection"
	StateDateTimeSelection   FlowState = "date_time_selection"
	StateContactConfirmation FlowState = "contact_confirmation"
	StateCommitted           FlowState = "committed"
)

// flowOrder is the strict forward order of the wizard.
var flowOrder = []FlowState{
	StateClinicSelection,
	StateDoctorSelection,
	StateServiceSelection,
	StateDateTimeSelection,
	StateContactConfirmation,
	StateCommitted,
}

// flowNext is the transition table; each state has exactly one forward
// successor. Back-navigation is handled separately and never leaves
// committed.
var flowNext = map[FlowState]FlowState{
	StateClinicSelection:     StateDoctorSelection,
	StateDoctorSelection:     StateServiceSelection,
	StateServiceSelection:    StateDateTimeSelection,
	StateDateTimeSelection:   StateContactConfirmation,
	StateContactConfirmation: StateCommitted,
}

func flowIndex(s FlowState) int {
	for i, state := range flowOrder {
		if state == s {
			return i
		}
	}
	return -1
}

// Flow carries a booking wizard through clinic, doctor, service and
// date/time selection up to the commit. Illegal transitions return a
// validation rejection instead of silently mutating state.
type Flow struct {
	State FlowState `json:"state"`

	ClinicID    string    `json:"clinicId,omitempty"`
	DoctorID    string    `json:"doctorId,omitempty"`
	ServiceIDs  []string  `json:"serviceIds,omitempty"`
	Date        time.Time `json:"date,omitempty"`
	StartMinute int       `json:"startMinute,omitempty"`
	Symptoms    string    `json:"symptoms,omitempty"`
}

// NewFlow starts a wizard at clinic selection.
func NewFlow() *Flow {
	return &Flow{State: StateClinicSelection}
}

func (f *Flow) require(state FlowState) error {
	if f.State != state {
		return validationError("invalid_flow_transition",
			"step "+string(state)+" is not available from "+string(f.State))
	}
	return nil
}

// SelectClinic records the clinic and advances to doctor selection.
func (f *Flow) SelectClinic(clinicID string) error {
	if err := f.require(StateClinicSelection); err != nil {
		return err
	}
	if clinicID == "" {
		return validationError("missing_clinic", "a clinic must be selected")
	}
	f.ClinicID = clinicID
	f.State = flowNext[f.State]
	return nil
}

// SelectDoctor records the doctor and advances to service selection.
func (f *Flow) SelectDoctor(doctorID string) error {
	if err := f.require(StateDoctorSelection); err != nil {
		return err
	}
	if doctorID == "" {
		return validationError("missing_doctor", "a doctor must be selected")
	}
	f.DoctorID = doctorID
	f.State = flowNext[f.State]
	return nil
}

// SelectServices records the chosen services (may be empty for a bare
// consultation) and advances to date/time selection. The date/time step is
// only reachable with a clinic and doctor in hand.
func (f *Flow) SelectServices(serviceIDs []string) error {
	if err := f.require(StateServiceSelection); err != nil {
		return err
	}
	if f.ClinicID == "" || f.DoctorID == "" {
		return validationError("incomplete_flow", "clinic and doctor must be selected before choosing a time")
	}
	f.ServiceIDs = serviceIDs
	f.State = flowNext[f.State]
	return nil
}

// SelectDateTime records the requested slot and advances to confirmation.
func (f *Flow) SelectDateTime(date time.Time, startMinute int) error {
	if err := f.require(StateDateTimeSelection); err != nil {
		return err
	}
	if !validMinute(startMinute) {
		return validationError("invalid_time", "start time is out of range")
	}
	f.Date = DateOnly(date)
	f.StartMinute = startMinute
	f.State = flowNext[f.State]
	return nil
}

// Confirm marks the contact details as confirmed. The actual commit and its
// atomic re-checks happen in Engine.CommitAppointment; only a successful
// commit moves the flow to committed via MarkCommitted.
func (f *Flow) Confirm(symptoms string) error {
	if err := f.require(StateContactConfirmation); err != nil {
		return err
	}
	f.Symptoms = symptoms
	return nil
}

// MarkCommitted finalizes the flow after a successful commit.
func (f *Flow) MarkCommitted() error {
	if err := f.require(StateContactConfirmation); err != nil {
		return err
	}
	f.State = StateCommitted
	return nil
}

// Back returns to an earlier state, discarding the selections made at or
// after it. A committed flow cannot be reopened.
func (f *Flow) Back(to FlowState) error {
	if f.State == StateCommitted {
		return validationError("flow_committed", "a committed booking cannot be reopened")
	}
	target := flowIndex(to)
	current := flowIndex(f.State)
	if target < 0 || target >= current {
		return validationError("invalid_flow_transition",
			"cannot navigate back from "+string(f.State)+" to "+string(to))
	}

	// Drop everything chosen at or after the target step.
	if target <= flowIndex(StateDateTimeSelection) {
		f.Date = time.Time{}
		f.StartMinute = 0
	}
	if target <= flowIndex(StateServiceSelection) {
		f.ServiceIDs = nil
	}
	if target <= flowIndex(StateDoctorSelection) {
		f.DoctorID = ""
	}
	if target <= flowIndex(StateClinicSelection) {
		f.ClinicID = ""
	}
	f.State = to
	return nil
}

// Request builds the commit request for the flow's selections.
func (f *Flow) Request(patientID string) BookingRequest {
	return BookingRequest{
		PatientID:   patientID,
		ClinicID:    f.ClinicID,
		DoctorID:    f.DoctorID,
		ServiceIDs:  f.ServiceIDs,
		Date:        f.Date,
		StartMinute: f.StartMinute,
		Symptoms:    f.Symptoms,
	}
}
