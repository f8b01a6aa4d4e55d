package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// confirm asks a yes/no question. A terminal gets a huh form; anything
// else is read as a y/N line.
func (a *app) confirm(title, description string) (bool, error) {
	if _, ok := a.stdinTerminal(); ok {
		var yes bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Description(description).
					Affirmative("Restart").
					Negative("Cancel").
					Value(&yes),
			),
		).WithTheme(huh.ThemeCharm()).Run()
		return yes, err
	}

	fmt.Fprintf(a.stdout, "%s %s [y/N]: ", title, description)
	line, err := a.readLine()
	if err != nil {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
