package booking

import (
	"context"
)

// RiskTier classifies a patient/clinic pair by booking reliability.
type RiskTier string

const (
	TierReliable     RiskTier = "reliable"
	TierModerateRisk RiskTier = "moderate_risk"
	TierHighRisk     RiskTier = "high_risk"
)

// ReliabilitySnapshot is derived per request from appointment history; it is
// never persisted. The tier only drives an advisory confirmation step, it
// never blocks a booking on its own.
type ReliabilitySnapshot struct {
	Completed      int64    `json:"completed"`
	NoShow         int64    `json:"noShow"`
	CancelledLate  int64    `json:"cancelledLate"`
	Total          int64    `json:"total"`
	CompletionRate float64  `json:"completionRate"`
	MissRate       float64  `json:"missRate"`
	Tier           RiskTier `json:"tier"`
}

// ComputeReliability scores a patient/clinic pair from historical
// completion, no-show and late-cancellation counts against the configured
// cutoffs. Patients with too little history default to reliable.
func (e *Engine) ComputeReliability(ctx context.Context, patientID, clinicID string) (ReliabilitySnapshot, error) {
	counts, err := e.store.HistoryCounts(ctx, patientID, clinicID)
	if err != nil {
		return ReliabilitySnapshot{}, infraError("load appointment history", err)
	}

	snapshot := ReliabilitySnapshot{
		Completed:     counts.Completed,
		NoShow:        counts.NoShow,
		CancelledLate: counts.CancelledLate,
		Total:         counts.Total,
		Tier:          TierReliable,
	}
	if counts.Total == 0 {
		return snapshot, nil
	}

	snapshot.CompletionRate = float64(counts.Completed) / float64(counts.Total)
	snapshot.MissRate = float64(counts.NoShow+counts.CancelledLate) / float64(counts.Total)

	// Not enough signal yet to penalize anyone.
	if counts.Total < int64(e.cfg.MinHistoryForScoring) {
		return snapshot, nil
	}

	switch {
	case snapshot.MissRate >= e.cfg.HighRiskNoShowRatio:
		snapshot.Tier = TierHighRisk
	case snapshot.MissRate >= e.cfg.ModerateRiskNoShowRatio:
		snapshot.Tier = TierModerateRisk
	}
	return snapshot, nil
}

// riskConfirmationRejection asks the caller to collect an explicit
// acknowledgement before committing a high-risk booking.
func riskConfirmationRejection(snapshot ReliabilitySnapshot) *Rejection {
	return &Rejection{
		Kind:       KindPolicyViolation,
		Type:       "risk_confirmation_required",
		Title:      "Confirmation required",
		Message:    "This booking needs an explicit confirmation because of past missed appointments.",
		Suggestion: "Resubmit the booking with the acknowledgement flag set after confirming with the patient.",
		Data: map[string]interface{}{
			"reliability": snapshot,
		},
	}
}
