package main

import (
	"fmt"
	"strings"
	"time"

	"quit-tracker/internal/cli"
	"quit-tracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard refreshed on an interval",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, sess, err := a.session()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = time.Minute
			}
			accountID := sess.AccountID
			load := func() (tracker.Snapshot, error) {
				// Reload so changes made elsewhere show up.
				s, err := svc.Open(accountID)
				if err != nil {
					return tracker.Snapshot{}, err
				}
				return svc.Snapshot(s), nil
			}
			m := newWatchModel(load, a.styles(), interval)
			_, err = tea.NewProgram(m, tea.WithInput(a.stdin), tea.WithOutput(a.stdout)).Run()
			return err
		},
	}
	defaultInterval := time.Duration(a.prefs.Watch.IntervalSeconds) * time.Second
	cmd.Flags().DurationVar(&interval, "interval", defaultInterval, "Refresh interval")
	return cmd
}

type refreshMsg time.Time

type watchModel struct {
	load     func() (tracker.Snapshot, error)
	styles   cli.Styles
	interval time.Duration

	snap tracker.Snapshot
	err  error
}

func newWatchModel(load func() (tracker.Snapshot, error), styles cli.Styles, interval time.Duration) watchModel {
	m := watchModel{load: load, styles: styles, interval: interval}
	m.snap, m.err = load()
	return m
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.snap, m.err = m.load()
		}
	case refreshMsg:
		m.snap, m.err = m.load()
		return m, m.tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(m.styles.Warn.Render("  refresh failed: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(renderStatus(m.styles, m.snap))
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf("  refreshing every %s · r refresh · q quit", m.interval)))
	b.WriteString("\n")
	return b.String()
}
