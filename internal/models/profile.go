package models

import "time"

// Theme names accepted by the settings form.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Defaults applied to a fresh account.
const (
	DefaultPricePerUnitMinor int64 = 229
	DefaultUnitsPerDay             = 2
	DefaultTheme                   = ThemeDark
)

// ProfileConfig holds the user-editable parameters of a streak.
type ProfileConfig struct {
	QuitDate          *time.Time `json:"quit_date,omitempty"` // local midnight, nil when not tracking
	PricePerUnitMinor int64      `json:"price_per_unit_minor"`
	UnitsPerDay       int        `json:"units_per_day"`
	Theme             string     `json:"theme"`
}

// Tracking reports whether a quit date is set.
func (p ProfileConfig) Tracking() bool {
	return p.QuitDate != nil
}

// DailySavingsMinor is the money saved per day of the streak.
func (p ProfileConfig) DailySavingsMinor() int64 {
	return int64(p.UnitsPerDay) * p.PricePerUnitMinor
}

// DefaultProfile returns the configuration of a newly created account.
func DefaultProfile() ProfileConfig {
	return ProfileConfig{
		PricePerUnitMinor: DefaultPricePerUnitMinor,
		UnitsPerDay:       DefaultUnitsPerDay,
		Theme:             DefaultTheme,
	}
}

// ResetEvent records one "restart journey" action.
type ResetEvent struct {
	ID               string     `json:"id"`
	OccurredAt       time.Time  `json:"occurred_at"`
	PreviousQuitDate *time.Time `json:"previous_quit_date,omitempty"`
}

// ResetHistory is the append-only reset log with its counter. Count must
// always equal len(Events).
type ResetHistory struct {
	Count  int          `json:"count"`
	Events []ResetEvent `json:"events"`
}

// AccountRecord is everything persisted for one account.
type AccountRecord struct {
	Profile ProfileConfig `json:"profile"`
	Resets  ResetHistory  `json:"resets"`
}

// NewAccountRecord returns the record of an account that has never saved.
func NewAccountRecord() AccountRecord {
	return AccountRecord{Profile: DefaultProfile()}
}

// DailyRecord is one row of the derived day-by-day ledger.
type DailyRecord struct {
	DayIndex             int
	Date                 time.Time
	UnitsAvoidedToday    int
	MoneySavedTodayMinor int64
	CumulativeUnits      int64
	CumulativeMoneyMinor int64
	Complete             bool // the day has fully elapsed
}

// MonthlyPoint is the end-of-month cumulative savings for the chart.
type MonthlyPoint struct {
	Key                  string // YYYY-MM
	Label                string // e.g. "Jan 24"
	CumulativeMoneyMinor int64
}

// Summary holds the values of the four summary tiles.
type Summary struct {
	Tracking        bool
	DaysFree        int
	UnitsAvoided    int64
	MoneySavedMinor int64
	ResetCount      int
}
