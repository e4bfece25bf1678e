package booking

import (
	"time"

	"github.com/rs/zerolog"

	"dental-booking-server/internal/config"
	"dental-booking-server/internal/models"
)

// Notifier is the fire-and-forget notification collaborator invoked after a
// commit. Delivery is external; it never blocks or fails a booking.
type Notifier interface {
	Dispatch(eventType string, appt *models.Appointment, recipient string)
}

// Engine is the appointment booking and scheduling policy engine. It holds
// no durable state of its own; every decision is a projection over the
// store, recomputed per request.
type Engine struct {
	store    Store
	locks    *lockTable
	notifier Notifier
	cfg      config.BookingConfig
	log      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a policy engine over a store. notifier may be nil.
func New(store Store, notifier Notifier, cfg config.BookingConfig, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		locks:    newLockTable(),
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "booking-engine").Logger(),
		now:      time.Now,
	}
}

// ValidateDate rejects calendar dates that fall before today on the
// engine's clock. HTTP callers run this before asking for availability or
// a booking precheck so a past date never reaches the slot math.
func (e *Engine) ValidateDate(date time.Time) error {
	if DateOnly(date).Before(DateOnly(e.now())) {
		return validationError("date_in_past", "date must not be in the past")
	}
	return nil
}

// validateSlotTiming additionally rejects same-day start times the clock
// has already passed. Shared by the commit and reschedule paths.
func (e *Engine) validateSlotTiming(date time.Time, startMinute int) error {
	if err := e.ValidateDate(date); err != nil {
		return err
	}
	if SameDate(date, e.now()) {
		nowMinute := e.now().Hour()*60 + e.now().Minute()
		if startMinute <= nowMinute {
			return validationError("time_in_past", "appointment time must be in the future")
		}
	}
	return nil
}

// dispatch fires a notification without blocking the caller.
func (e *Engine) dispatch(eventType string, appt *models.Appointment) {
	if e.notifier == nil {
		return
	}
	snapshot := *appt
	go e.notifier.Dispatch(eventType, &snapshot, snapshot.PatientID)
}
