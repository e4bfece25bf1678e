package booking

import (
	"context"
	"time"

	"dental-booking-server/internal/models"
)

// TimeSlot is one bookable start time for a doctor on a date.
type TimeSlot struct {
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// ComputeAvailableSlots returns the ordered candidate start times for a
// doctor on a date, at the configured granularity, within the doctor's
// working windows for that weekday and clear of any pending/confirmed
// appointment. A date with no configured window yields an empty list, not
// an error. Pure read; callers reject past dates before getting here.
func (e *Engine) ComputeAvailableSlots(ctx context.Context, doctorID string, date time.Time, durationMinutes int) ([]TimeSlot, error) {
	if durationMinutes <= 0 {
		durationMinutes = e.cfg.DefaultConsultationMinutes
	}

	windows, err := e.store.ScheduleWindows(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, infraError("load schedule windows", err)
	}
	if len(windows) == 0 {
		return []TimeSlot{}, nil
	}

	booked, err := e.store.OpenAppointmentsForDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, infraError("load doctor appointments", err)
	}

	interval := e.cfg.SlotIntervalMinutes
	slots := []TimeSlot{}
	for _, w := range windows {
		for start := w.StartMinute; start+durationMinutes <= w.EndMinute; start += interval {
			if slotTaken(booked, start, durationMinutes) {
				continue
			}
			slots = append(slots, TimeSlot{
				StartMinute: start,
				EndMinute:   start + durationMinutes,
				Start:       FormatMinute(start),
				End:         FormatMinute(start + durationMinutes),
			})
		}
	}
	return slots, nil
}

func slotTaken(booked []models.Appointment, startMinute, durationMinutes int) bool {
	for i := range booked {
		if booked[i].OverlapsInterval(startMinute, durationMinutes) {
			return true
		}
	}
	return false
}
