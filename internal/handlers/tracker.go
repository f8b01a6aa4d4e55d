package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/resets"
	"quit-tracker/internal/settings"
	"quit-tracker/internal/stats"
	"quit-tracker/internal/tracker"

	"go.uber.org/zap"
)

// TrackerViewModel is the data passed to the landing and tracker views.
type TrackerViewModel struct {
	Username string
	Today    string
	Error    string
	tracker.Snapshot
}

// openSession loads the tracker session of the logged-in user. On failure
// it has already written the error response.
func (h *Handlers) openSession(w http.ResponseWriter, r *http.Request) (*tracker.Session, bool) {
	user := GetUserFromContext(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, false
	}
	sess, err := h.tracker.Open(user.ID)
	if err != nil {
		h.log.Error("open tracker session failed", zap.Int64("account_id", user.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func (h *Handlers) trackerView(r *http.Request, sess *tracker.Session) TrackerViewModel {
	snap := h.tracker.Snapshot(sess)
	vm := TrackerViewModel{Today: calendar.FormatDate(snap.Now), Snapshot: snap}
	if user := GetUserFromContext(r); user != nil {
		vm.Username = user.Username
	}
	return vm
}

// Tracker shows the date picker when no streak is tracked, the tiles otherwise.
func (h *Handlers) Tracker(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	vm := h.trackerView(r, sess)
	if !vm.Summary.Tracking {
		h.render(w, r, "landing.html", vm)
		return
	}
	h.render(w, r, "tracker.html", vm)
}

// StartJourney sets the quit date from the landing form.
func (h *Handlers) StartJourney(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	// A running streak only ends through restart, which logs the reset.
	if sess.Record.Profile.Tracking() {
		redirect(w, r, "/tracker")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.tracker.StartJourney(sess, r.FormValue("quit_date"))
	var verr *settings.ValidationError
	switch {
	case errors.As(err, &verr):
		vm := h.trackerView(r, sess)
		vm.Error = "Please select your quit date."
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.render(w, r, "landing.html", vm)
		return
	case err != nil:
		h.log.Error("start journey failed", zap.Int64("account_id", sess.AccountID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/tracker")
}

// RestartJourney logs a reset and returns to the date picker.
func (h *Handlers) RestartJourney(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	if _, err := h.tracker.RestartJourney(sess); err != nil && !errors.Is(err, resets.ErrInvalidState) {
		h.log.Error("restart journey failed", zap.Int64("account_id", sess.AccountID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/tracker")
}

// SettingsViewModel is the data passed to the settings view.
type SettingsViewModel struct {
	Form   settings.Input
	Field  string
	Error  string
	Saved  bool
	Themes []string
}

func settingsForm(p models.ProfileConfig) settings.Input {
	return settings.Input{
		Price:       settings.FormatPrice(p.PricePerUnitMinor),
		UnitsPerDay: itoa(p.UnitsPerDay),
		QuitDate:    calendar.FormatOptionalDate(p.QuitDate),
		Theme:       p.Theme,
	}
}

// SettingsForm renders the profile settings.
func (h *Handlers) SettingsForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	h.render(w, r, "settings.html", SettingsViewModel{
		Form:   settingsForm(sess.Record.Profile),
		Saved:  r.URL.Query().Get("saved") == "1",
		Themes: []string{models.ThemeDark, models.ThemeLight},
	})
}

// SaveSettings validates and stores the profile settings.
func (h *Handlers) SaveSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := settings.Input{
		Price:       r.FormValue("price"),
		UnitsPerDay: r.FormValue("units_per_day"),
		QuitDate:    r.FormValue("quit_date"),
		Theme:       r.FormValue("theme"),
	}
	err := h.tracker.SaveSettings(sess, in)
	var verr *settings.ValidationError
	switch {
	case errors.As(err, &verr):
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.render(w, r, "settings.html", SettingsViewModel{
			Form:   in,
			Field:  verr.Field,
			Error:  verr.Error(),
			Themes: []string{models.ThemeDark, models.ThemeLight},
		})
		return
	case err != nil:
		h.log.Error("save settings failed", zap.Int64("account_id", sess.AccountID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/settings?saved=1")
}

// BreakdownViewModel is the data passed to the breakdown view.
type BreakdownViewModel struct {
	Kind        string
	Title       string
	UnitsPerDay int
	Rows        []models.DailyRecord
}

var breakdownTitles = map[string]string{
	"money": "Money Saved: Daily Breakdown",
	"units": "Units Avoided: Daily Breakdown",
	"days":  "Days Free: Daily List",
}

// Breakdown renders the day-by-day ledger for one tile.
func (h *Handlers) Breakdown(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	title, known := breakdownTitles[kind]
	if !known {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	snap := h.tracker.Snapshot(sess)
	h.render(w, r, "breakdown.html", BreakdownViewModel{
		Kind:        kind,
		Title:       title,
		UnitsPerDay: snap.Profile.UnitsPerDay,
		Rows:        snap.Ledger,
	})
}

// ChartViewModel is the data passed to the chart view.
type ChartViewModel struct {
	Chart  LineChart
	Points []models.MonthlyPoint
}

// Chart renders cumulative savings by month.
func (h *Handlers) Chart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	snap := h.tracker.Snapshot(sess)
	h.render(w, r, "chart.html", ChartViewModel{
		Chart:  BuildLineChart(snap.Monthly, chartWidth, chartHeight, chartPad),
		Points: snap.Monthly,
	})
}

// HealthViewModel is the data passed to the health view.
type HealthViewModel struct {
	DaysFree   int
	Milestones []stats.MilestoneStatus
	Next       *stats.Milestone
}

// Health renders the health milestones.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	snap := h.tracker.Snapshot(sess)
	h.render(w, r, "health.html", HealthViewModel{
		DaysFree:   snap.Summary.DaysFree,
		Milestones: snap.Milestones,
		Next:       snap.Next,
	})
}

// ResetsViewModel is the data passed to the reset history view.
type ResetsViewModel struct {
	Count  int
	Events []models.ResetEvent
}

// Resets renders the reset history.
func (h *Handlers) Resets(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	h.render(w, r, "resets.html", ResetsViewModel{
		Count:  sess.Record.Resets.Count,
		Events: sess.Record.Resets.Events,
	})
}

// SummaryResponse is the JSON body of /api/summary.
type SummaryResponse struct {
	Tracking        bool           `json:"tracking"`
	DaysFree        int            `json:"daysFree"`
	UnitsAvoided    int64          `json:"unitsAvoided"`
	MoneySavedMinor int64          `json:"moneySavedMinorUnits"`
	MoneySaved      string         `json:"moneySaved"`
	ResetCount      int            `json:"resetCount"`
	Motivation      string         `json:"motivation"`
	Record          tracker.Export `json:"record"`
}

// APISummary returns the tile values and the account record as JSON.
func (h *Handlers) APISummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	snap := h.tracker.Snapshot(sess)
	resp := SummaryResponse{
		Tracking:        snap.Summary.Tracking,
		DaysFree:        snap.Summary.DaysFree,
		UnitsAvoided:    snap.Summary.UnitsAvoided,
		MoneySavedMinor: snap.Summary.MoneySavedMinor,
		MoneySaved:      settings.FormatMoney(snap.Summary.MoneySavedMinor),
		ResetCount:      snap.Summary.ResetCount,
		Motivation:      snap.Motivation,
		Record:          tracker.ExportRecord(sess.Record),
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("encode summary failed", zap.Error(err))
	}
}
