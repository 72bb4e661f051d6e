package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// FormatCloseWithTrend formats a close with an arrow against the previous close.
func FormatCloseWithTrend(current, previous optional.Option[float64]) string {
	if current.IsNone() {
		return "-"
	}

	closeStr := fmt.Sprintf("%.2f", current.Unwrap())

	if previous.IsNone() {
		return closeStr
	}

	if current.Unwrap() > previous.Unwrap() {
		return closeStr + " ▲"
	} else if current.Unwrap() < previous.Unwrap() {
		return closeStr + " ▼"
	}

	return closeStr
}

// FormatValue renders an indicator value, or "-" while it is undefined.
func FormatValue(v optional.Option[float64]) string {
	if v.IsNone() {
		return "-"
	}

	return fmt.Sprintf("%.2f", v.Unwrap())
}
