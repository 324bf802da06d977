package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/ghsearch/internal/models"
)

const (
	NoMatchesMessage = "No users found matching the search criteria."
	separatorWidth   = 80
)

// Render prints one block per user. Bio, location and followers lines are
// left out when the field is absent.
func Render(w io.Writer, users []models.User) error {
	return renderUsers(w, users, func(label string) string { return label })
}

// RenderUsers is Render on the UI's stdout, with colored labels when enabled.
func (u *UI) RenderUsers(users []models.User) error {
	label := func(text string) string { return text }
	if u.ColorEnabled {
		label = func(text string) string {
			return u.Output.String(text).Foreground(u.Output.Color("6")).Bold().String()
		}
	}
	return renderUsers(u.Out, users, label)
}

func renderUsers(w io.Writer, users []models.User, label func(string) string) error {
	if len(users) == 0 {
		_, err := fmt.Fprintf(w, "\n%s\n", NoMatchesMessage)
		return err
	}

	lines := []string{
		"",
		fmt.Sprintf("Search Results (%d users):", len(users)),
		strings.Repeat("=", separatorWidth),
	}
	for _, user := range users {
		lines = append(lines, userLines(user, label)...)
		lines = append(lines, strings.Repeat("-", separatorWidth))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func userLines(user models.User, label func(string) string) []string {
	displayName := "N/A"
	if user.Name != nil {
		displayName = *user.Name
	}

	lines := []string{
		label("Username:") + " " + user.Login,
		label("Display Name:") + " " + displayName,
	}
	if user.BioText() != "" {
		lines = append(lines, label("Bio:")+" "+user.BioText())
	}
	if user.LocationText() != "" {
		lines = append(lines, label("Location:")+" "+user.LocationText())
	}
	if user.Followers != nil {
		lines = append(lines, fmt.Sprintf("%s %d", label("Followers:"), *user.Followers))
	}
	return lines
}
