package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quit-tracker/internal/auth"
	"quit-tracker/internal/calendar"
	"quit-tracker/internal/cli"
	"quit-tracker/internal/config"
	"quit-tracker/internal/models"
	"quit-tracker/internal/resets"
	"quit-tracker/internal/settings"
	"quit-tracker/internal/tracker"

	"github.com/spf13/cobra"
)

func (a *app) adduserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adduser",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.flagUser == "" {
				return errors.New("missing required flag: --user")
			}
			password, err := a.password()
			if err != nil {
				return err
			}
			if strings.TrimSpace(password) == "" {
				return errors.New("password cannot be empty")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			id, err := auth.NewService(db).Register(a.flagUser, password)
			if errors.Is(err, auth.ErrUserExists) {
				return fmt.Errorf("user %s already exists", a.flagUser)
			}
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Fprintf(a.stdout, "User %s created successfully with ID %d\n", a.flagUser, id)
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the summary tiles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(tracker.ExportRecord(sess.Record))
			}
			fmt.Fprint(a.stdout, renderStatus(a.styles(), svc.Snapshot(sess)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the account record as JSON")
	return cmd
}

func renderStatus(st cli.Styles, snap tracker.Snapshot) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(st.RenderTitle("QUIT TRACKER"))
	b.WriteString("\n")
	if !snap.Summary.Tracking {
		b.WriteString(st.Muted.Render("  No quit date set. Run `quitctl start` to begin."))
		b.WriteString("\n")
		if snap.Summary.ResetCount > 0 {
			fmt.Fprintf(&b, "  Resets so far: %d\n", snap.Summary.ResetCount)
		}
		return b.String()
	}

	b.WriteString(st.RenderTiles(snap.Summary))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Quit on %s.", calendar.FormatOptionalDate(snap.Profile.QuitDate))
	if snap.Next != nil {
		left := int64(snap.Next.Days - snap.Summary.DaysFree)
		fmt.Fprintf(&b, " Next milestone in %d %s.", left, cli.Plural(left, "day"))
	}
	b.WriteString("\n  ")
	b.WriteString(st.Muted.Render(snap.Motivation))
	b.WriteString("\n")
	return b.String()
}

var ledgerViews = []string{"money", "units", "days"}

func (a *app) ledgerCmd() *cobra.Command {
	var view string
	var last int
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the day-by-day breakdown",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			t, ok := ledgerTable(view)
			if !ok {
				return fmt.Errorf("unknown view %q (want one of %s)", view, strings.Join(ledgerViews, ", "))
			}
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			rows := svc.Snapshot(sess).Ledger
			if len(rows) == 0 {
				fmt.Fprintln(a.stdout, "No data yet.")
				return nil
			}
			if last > 0 && len(rows) > last {
				rows = rows[len(rows)-last:]
			}
			for _, r := range rows {
				t.Rows = append(t.Rows, ledgerRow(view, r))
			}
			fmt.Fprint(a.stdout, a.styles().RenderTable(t))
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "money", "Breakdown to show: money, units or days")
	cmd.Flags().IntVar(&last, "last", 0, "Only show the most recent N days")
	return cmd
}

func ledgerTable(view string) (cli.Table, bool) {
	switch view {
	case "money":
		return cli.Table{Title: "Money Saved: Daily Breakdown", Headers: []string{"Day", "Date", "Units", "Today", "Cumulative"}}, true
	case "units":
		return cli.Table{Title: "Units Avoided: Daily Breakdown", Headers: []string{"Day", "Date", "Today", "Cumulative"}}, true
	case "days":
		return cli.Table{Title: "Days Free: Daily List", Headers: []string{"Day #", "Date"}}, true
	}
	return cli.Table{}, false
}

func ledgerRow(view string, r models.DailyRecord) []string {
	day := strconv.Itoa(r.DayIndex)
	if !r.Complete {
		day += "*"
	}
	date := calendar.FormatDate(r.Date)
	switch view {
	case "money":
		return []string{day, date, strconv.Itoa(r.UnitsAvoidedToday),
			settings.FormatMoney(r.MoneySavedTodayMinor), settings.FormatMoney(r.CumulativeMoneyMinor)}
	case "units":
		return []string{day, date, strconv.Itoa(r.UnitsAvoidedToday), cli.FormatNumber(r.CumulativeUnits)}
	default:
		return []string{day, date}
	}
}

func (a *app) chartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Show cumulative savings by month",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			points := svc.Snapshot(sess).Monthly
			if len(points) == 0 {
				fmt.Fprintln(a.stdout, "No data yet.")
				return nil
			}
			fmt.Fprint(a.stdout, renderChart(a.styles(), points))
			return nil
		},
	}
}

func renderChart(st cli.Styles, points []models.MonthlyPoint) string {
	values := make([]float64, len(points))
	top := 0.0
	for i, p := range points {
		values[i] = float64(p.CumulativeMoneyMinor)
		top = max(top, values[i])
	}

	t := cli.Table{Title: "Money Saved Over Time", Headers: []string{"Month", "Saved to date", ""}}
	for i, p := range points {
		t.Rows = append(t.Rows, []string{p.Label, settings.FormatMoney(p.CumulativeMoneyMinor), cli.RenderHorizontalBar(values[i], top, 24)})
	}
	return st.RenderTable(t) + "  " + st.Header.Render(cli.RenderSparkline(values)) + "\n"
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show health milestones",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			snap := svc.Snapshot(sess)
			t := cli.Table{Title: "Health Progress", Headers: []string{"Day", "Milestone", "Status"}}
			for _, m := range snap.Milestones {
				status := "-"
				if m.Reached {
					status = "reached"
				}
				t.Rows = append(t.Rows, []string{strconv.Itoa(m.Days), m.Text, status})
			}
			fmt.Fprint(a.stdout, a.styles().RenderTable(t))
			return nil
		},
	}
}

func (a *app) resetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resets",
		Short: "Show the reset history",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, sess, err := a.session()
			if err != nil {
				return err
			}
			events := sess.Record.Resets.Events
			if len(events) == 0 {
				fmt.Fprintln(a.stdout, "No resets logged.")
				return nil
			}
			t := cli.Table{Title: "Reset Count: History", Headers: []string{"#", "Reset at", "Previous quit date"}}
			for i, ev := range events {
				prev := calendar.FormatOptionalDate(ev.PreviousQuitDate)
				if prev == "" {
					prev = "-"
				}
				t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), ev.OccurredAt.Local().Format("2006-01-02 15:04"), prev})
			}
			fmt.Fprint(a.stdout, a.styles().RenderTable(t))
			return nil
		},
	}
}

func (a *app) startCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Set the quit date and start tracking",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			if date == "" {
				date = calendar.FormatDate(a.now())
			}
			if err := svc.StartJourney(sess, date); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Journey started on %s.\n", calendar.FormatOptionalDate(sess.Record.Profile.QuitDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Quit date as YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) restartCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Log a reset and clear the quit date",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			if !sess.Record.Profile.Tracking() {
				fmt.Fprintln(a.stdout, "Nothing to restart: no quit date is set.")
				return nil
			}
			if !yes {
				ok, err := a.confirm("Restart journey?", "This logs a reset and clears your quit date.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.stdout, "Cancelled.")
					return nil
				}
			}

			_, err = svc.RestartJourney(sess)
			if errors.Is(err, resets.ErrInvalidState) {
				fmt.Fprintln(a.stdout, "Nothing to restart: no quit date is set.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Journey restarted. Resets so far: %d.\n", sess.Record.Resets.Count)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	var in settings.Input
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change price, units per day, quit date and theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}

			current := profileInput(sess.Record.Profile)
			changed := false
			for name, flag := range map[string][2]*string{
				"price":     {&in.Price, &current.Price},
				"units":     {&in.UnitsPerDay, &current.UnitsPerDay},
				"quit-date": {&in.QuitDate, &current.QuitDate},
				"theme":     {&in.Theme, &current.Theme},
			} {
				if cmd.Flags().Changed(name) {
					*flag[1] = *flag[0]
					changed = true
				}
			}

			if changed {
				if err := svc.SaveSettings(sess, current); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "Settings saved.")
			}

			p := sess.Record.Profile
			quit := calendar.FormatOptionalDate(p.QuitDate)
			if quit == "" {
				quit = "not set"
			}
			fmt.Fprint(a.stdout, a.styles().RenderTable(cli.Table{
				Title:   "Settings",
				Headers: []string{"Setting", "Value"},
				Rows: [][]string{
					{"Price per unit", settings.FormatMoney(p.PricePerUnitMinor)},
					{"Units per day", strconv.Itoa(p.UnitsPerDay)},
					{"Quit date", quit},
					{"Theme", p.Theme},
				},
			}))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Price, "price", "", "Price per unit, e.g. 2.29")
	f.StringVar(&in.UnitsPerDay, "units", "", "Units per day")
	f.StringVar(&in.QuitDate, "quit-date", "", "Quit date as YYYY-MM-DD, empty to stop tracking")
	f.StringVar(&in.Theme, "theme", "", "Theme: dark or light")
	return cmd
}

func profileInput(p models.ProfileConfig) settings.Input {
	return settings.Input{
		Price:       settings.FormatPrice(p.PricePerUnitMinor),
		UnitsPerDay: strconv.Itoa(p.UnitsPerDay),
		QuitDate:    calendar.FormatOptionalDate(p.QuitDate),
		Theme:       p.Theme,
	}
}

func (a *app) configCmd() *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Save the current --db, --user and --theme as defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.prefs
			if cmd.Flags().Changed("db") {
				p.General.DBPath = a.flagDB
			}
			if cmd.Flags().Changed("user") {
				p.General.Username = a.flagUser
			}
			if cmd.Flags().Changed("theme") {
				if theme != models.ThemeDark && theme != models.ThemeLight {
					return fmt.Errorf("unknown theme %q", theme)
				}
				p.Appearance.Theme = theme
			}
			if err := config.SavePrefs(p); err != nil {
				return err
			}
			a.prefs = p
			fmt.Fprintf(a.stdout, "Preferences written to %s\n", config.PrefsPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "Terminal theme: dark or light")
	return cmd
}
