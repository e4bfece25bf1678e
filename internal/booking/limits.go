package booking

import (
	"context"
)

// LimitReason explains a booking-limit decision.
type LimitReason string

const (
	LimitOK             LimitReason = "ok"
	LimitNetworkReached LimitReason = "network_limit_reached"
	LimitClinicReached  LimitReason = "clinic_limit_reached"
)

// BookingLimitState is the derived quota aggregate for a patient/clinic
// pair, computed at request time and never stored.
type BookingLimitState struct {
	TotalPending     int         `json:"totalPending"`
	MaxTotalPending  int         `json:"maxTotalPending"`
	ClinicPending    int         `json:"clinicPending"`
	MaxClinicPending int         `json:"maxClinicPending"`
	Allowed          bool        `json:"allowed"`
	Reason           LimitReason `json:"reason"`
}

// EvaluateBookingLimits counts the patient's open appointments network-wide
// and at the target clinic, and reports whether one more booking would stay
// under both ceilings.
func (e *Engine) EvaluateBookingLimits(ctx context.Context, patientID, clinicID string) (BookingLimitState, error) {
	return e.checkLimitsWith(ctx, e.store, patientID, clinicID)
}

func limitRejection(state BookingLimitState) *Rejection {
	title := "Appointment limit reached"
	message := "You have reached the maximum number of pending appointments across the network."
	if state.Reason == LimitClinicReached {
		message = "You have reached the maximum number of pending appointments at this clinic."
	}
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       string(state.Reason),
		Title:      title,
		Message:    message,
		Suggestion: "Complete or cancel an existing appointment before booking a new one.",
		Data: map[string]interface{}{
			"limits": state,
		},
	}
}
