// Package stats reduces a streak to the summary counters and chart series
// shown to the user.
package stats

import (
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
)

// DaysFree returns the number of whole days since the quit date. It does not
// build the ledger, which keeps the periodically refreshed tiles cheap.
func DaysFree(quitDate *time.Time, now time.Time) int {
	if quitDate == nil {
		return 0
	}
	return calendar.DaysBetween(calendar.TruncateToDay(*quitDate), now)
}

// UnitsAvoided returns daysFree * unitsPerDay.
func UnitsAvoided(daysFree, unitsPerDay int) int64 {
	return int64(daysFree) * int64(unitsPerDay)
}

// MoneySaved returns unitsAvoided * pricePerUnitMinor.
func MoneySaved(unitsAvoided, pricePerUnitMinor int64) int64 {
	return unitsAvoided * pricePerUnitMinor
}

// MonthlyCumulative groups consecutive ledger rows by calendar month. Each
// point carries the running money total as of the month's last row.
func MonthlyCumulative(rows []models.DailyRecord) []models.MonthlyPoint {
	var points []models.MonthlyPoint
	var cum int64
	for _, r := range rows {
		cum += r.MoneySavedTodayMinor
		key := calendar.MonthKey(r.Date)
		if n := len(points); n > 0 && points[n-1].Key == key {
			points[n-1].CumulativeMoneyMinor = cum
			continue
		}
		points = append(points, models.MonthlyPoint{
			Key:                  key,
			Label:                calendar.MonthLabel(r.Date),
			CumulativeMoneyMinor: cum,
		})
	}
	return points
}

// Summarize computes the summary tiles of an account record at now.
func Summarize(rec models.AccountRecord, now time.Time) models.Summary {
	p := rec.Profile
	days := DaysFree(p.QuitDate, now)
	units := UnitsAvoided(days, p.UnitsPerDay)
	return models.Summary{
		Tracking:        p.Tracking(),
		DaysFree:        days,
		UnitsAvoided:    units,
		MoneySavedMinor: MoneySaved(units, p.PricePerUnitMinor),
		ResetCount:      rec.Resets.Count,
	}
}
