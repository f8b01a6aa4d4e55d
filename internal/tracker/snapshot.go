package tracker

import (
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/ledger"
	"quit-tracker/internal/models"
	"quit-tracker/internal/stats"
)

// Snapshot is everything the views render for one account at one instant.
type Snapshot struct {
	Now        time.Time
	Profile    models.ProfileConfig
	Summary    models.Summary
	Ledger     []models.DailyRecord
	Monthly    []models.MonthlyPoint
	Milestones []stats.MilestoneStatus
	Next       *stats.Milestone // nil once every milestone is reached
	Motivation string
	Resets     []models.ResetEvent
}

// Snapshot computes the derived views of the session's record.
func (s *Service) Snapshot(sess *Session) Snapshot {
	now := s.Now()
	rec := sess.Record
	rows := ledger.ForProfile(rec.Profile, now)
	sum := stats.Summarize(rec, now)

	snap := Snapshot{
		Now:        now,
		Profile:    rec.Profile,
		Summary:    sum,
		Ledger:     rows,
		Monthly:    stats.MonthlyCumulative(rows),
		Milestones: stats.Milestones(sum.DaysFree),
		Motivation: stats.Motivation(now),
		Resets:     rec.Resets.Events,
	}
	if m, ok := stats.NextMilestone(sum.DaysFree); ok {
		snap.Next = &m
	}
	return snap
}

// ExportedReset is one reset in the exported record.
type ExportedReset struct {
	OccurredAt       string  `json:"occurredAt"`
	PreviousQuitDate *string `json:"previousQuitDate"`
}

// Export is the external JSON shape of an account record.
type Export struct {
	PricePerUnitMinorUnits int64           `json:"pricePerUnitMinorUnits"`
	UnitsPerDay            int             `json:"unitsPerDay"`
	QuitDate               *string         `json:"quitDate"`
	ResetCount             int             `json:"resetCount"`
	ResetHistory           []ExportedReset `json:"resetHistory"`
}

// ExportRecord converts a record to its external JSON shape.
func ExportRecord(rec models.AccountRecord) Export {
	out := Export{
		PricePerUnitMinorUnits: rec.Profile.PricePerUnitMinor,
		UnitsPerDay:            rec.Profile.UnitsPerDay,
		QuitDate:               optionalDate(rec.Profile.QuitDate),
		ResetCount:             rec.Resets.Count,
		ResetHistory:           make([]ExportedReset, 0, len(rec.Resets.Events)),
	}
	for _, ev := range rec.Resets.Events {
		out.ResetHistory = append(out.ResetHistory, ExportedReset{
			OccurredAt:       ev.OccurredAt.UTC().Format(time.RFC3339),
			PreviousQuitDate: optionalDate(ev.PreviousQuitDate),
		})
	}
	return out
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := calendar.FormatDate(*t)
	return &s
}
