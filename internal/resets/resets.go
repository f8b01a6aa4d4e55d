// Package resets maintains the append-only log of "restart journey" actions.
package resets

import (
	"errors"
	"fmt"
	"time"

	"quit-tracker/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidState is returned when a reset is requested while no streak is
// being tracked. Nothing is recorded in that case.
var ErrInvalidState = errors.New("no active quit date to reset")

// Record appends one reset event for cfg's current streak and increments the
// counter by exactly one. cfg itself is never modified; clearing the quit
// date is the caller's job.
func Record(h *models.ResetHistory, cfg models.ProfileConfig, now time.Time) (models.ResetEvent, error) {
	if cfg.QuitDate == nil {
		return models.ResetEvent{}, ErrInvalidState
	}

	prev := *cfg.QuitDate
	ev := models.ResetEvent{
		ID:               uuid.NewString(),
		OccurredAt:       now,
		PreviousQuitDate: &prev,
	}
	h.Events = append(h.Events, ev)
	h.Count++
	return ev, nil
}

// Validate checks that the counter matches the number of logged events.
func Validate(h models.ResetHistory) error {
	if h.Count != len(h.Events) {
		return fmt.Errorf("reset count %d does not match %d logged events", h.Count, len(h.Events))
	}
	return nil
}
