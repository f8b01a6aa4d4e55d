// Package ledger builds the derived day-by-day record of a streak.
package ledger

import (
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
)

// Build returns one record per calendar day from quitDate through the day of
// now, inclusive. It returns nil when quitDate is nil or after now.
//
// Running totals are carried forward row by row, so the cost is linear in the
// number of days elapsed.
func Build(quitDate *time.Time, unitsPerDay int, pricePerUnitMinor int64, now time.Time) []models.DailyRecord {
	if quitDate == nil {
		return nil
	}
	start := calendar.TruncateToDay(*quitDate)
	today := calendar.TruncateToDay(now.In(start.Location()))
	if start.After(today) {
		return nil
	}

	dailyMoney := int64(unitsPerDay) * pricePerUnitMinor
	rows := make([]models.DailyRecord, 0, calendar.DaysBetween(start, today)+1)

	var cumUnits, cumMoney int64
	for d, i := start, 1; !d.After(today); d, i = calendar.StepDay(d), i+1 {
		cumUnits += int64(unitsPerDay)
		cumMoney += dailyMoney
		rows = append(rows, models.DailyRecord{
			DayIndex:             i,
			Date:                 d,
			UnitsAvoidedToday:    unitsPerDay,
			MoneySavedTodayMinor: dailyMoney,
			CumulativeUnits:      cumUnits,
			CumulativeMoneyMinor: cumMoney,
			Complete:             d.Before(today),
		})
	}
	return rows
}

// ForProfile builds the ledger for a profile's current streak.
func ForProfile(cfg models.ProfileConfig, now time.Time) []models.DailyRecord {
	return Build(cfg.QuitDate, cfg.UnitsPerDay, cfg.PricePerUnitMinor, now)
}

// CompletedMoney sums the money of the rows whose day has fully elapsed.
func CompletedMoney(rows []models.DailyRecord) int64 {
	var total int64
	for _, r := range rows {
		if r.Complete {
			total += r.MoneySavedTodayMinor
		}
	}
	return total
}

// CompletedUnits sums the units of the rows whose day has fully elapsed.
func CompletedUnits(rows []models.DailyRecord) int64 {
	var total int64
	for _, r := range rows {
		if r.Complete {
			total += int64(r.UnitsAvoidedToday)
		}
	}
	return total
}
