// Package settings turns raw settings-form input into a validated
// ProfileConfig. It is the only place where profile invariants are enforced.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Input is the text submitted by a settings form or CLI flags.
type Input struct {
	Price       string // major units, e.g. "2.29"
	UnitsPerDay string
	QuitDate    string // YYYY-MM-DD or empty
	Theme       string
}

// ValidationError reports a settings field that could not be parsed.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Upper bounds for form input. With the earliest parseable quit date,
// MaxPriceMinor*MaxUnitsPerDay*days stays well inside int64.
const (
	MaxPriceMinor  = 100_000_000 // 1,000,000.00 per unit
	MaxUnitsPerDay = 10_000
)

var (
	minorPerMajor = decimal.NewFromInt(100)
	maxPrice      = decimal.New(MaxPriceMinor, -2)
)

// Apply validates in and returns the resulting profile. Negative prices clamp
// to zero and units below one clamp to one. Unreadable text and values above
// MaxPriceMinor or MaxUnitsPerDay yield a *ValidationError.
func Apply(in Input, loc *time.Location) (models.ProfileConfig, error) {
	price, err := ParsePrice(in.Price)
	if err != nil {
		return models.ProfileConfig{}, err
	}

	units, err := ParseUnits(in.UnitsPerDay)
	if err != nil {
		return models.ProfileConfig{}, err
	}

	quit, err := parseQuitDate(in.QuitDate, loc)
	if err != nil {
		return models.ProfileConfig{}, err
	}

	theme, err := parseTheme(in.Theme)
	if err != nil {
		return models.ProfileConfig{}, err
	}

	return models.ProfileConfig{
		QuitDate:          quit,
		PricePerUnitMinor: price,
		UnitsPerDay:       units,
		Theme:             theme,
	}, nil
}

// ParsePrice converts a decimal major-unit amount to minor units, rounding
// half away from zero and clamping negatives to zero.
func ParsePrice(text string) (int64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(text), "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "price", Value: text, Err: err}
	}
	if d.IsNegative() {
		return 0, nil
	}
	if d.GreaterThan(maxPrice) {
		return 0, &ValidationError{Field: "price", Value: text, Err: fmt.Errorf("above %s", maxPrice.StringFixed(2))}
	}
	return d.Mul(minorPerMajor).Round(0).IntPart(), nil
}

// ParseUnits reads a units-per-day count. Anything unreadable or below one
// becomes one; counts above MaxUnitsPerDay are rejected.
func ParseUnits(text string) (int, error) {
	s := strings.TrimSpace(text)
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(s, "-") {
		n, err = MaxUnitsPerDay+1, nil
	}
	if err != nil || n < 1 {
		return 1, nil
	}
	if n > MaxUnitsPerDay {
		return 0, &ValidationError{Field: "units_per_day", Value: text, Err: fmt.Errorf("above %d", MaxUnitsPerDay)}
	}
	return n, nil
}

// FormatPrice renders minor units as the major-unit text Apply accepts.
func FormatPrice(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// FormatMoney renders minor units for display, e.g. "$13.74".
func FormatMoney(minor int64) string {
	return "$" + FormatPrice(minor)
}

func parseQuitDate(text string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(text, loc)
	if err != nil {
		return nil, &ValidationError{Field: "quit_date", Value: text, Err: err}
	}
	return &d, nil
}

func parseTheme(text string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(text)); t {
	case "":
		return models.DefaultTheme, nil
	case models.ThemeDark, models.ThemeLight:
		return t, nil
	default:
		return "", &ValidationError{Field: "theme", Value: text, Err: fmt.Errorf("want %q or %q", models.ThemeDark, models.ThemeLight)}
	}
}
