package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/types"
)

// listItem implements list.Item for the oscillator mode list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewModeList creates a list for oscillator mode selection.
func NewModeList() list.Model {
	items := []list.Item{
		listItem{name: string(types.OscillatorModeTextbook), description: "MACD(12,26,9), RSI(14) and KDJ(9,3,3) from the bars"},
		listItem{name: string(types.OscillatorModePlaceholder), description: "Deterministic demo waves for the oscillator panes"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Oscillator Mode"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewSymbolInput creates a text input for the symbol to chart.
func NewSymbolInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 30
	ti.Prompt = "> "

	return ti
}

// ParseSymbol normalizes the typed symbol.
func ParseSymbol(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// NewSeriesTable creates the table that shows one row per bar.
func NewSeriesTable() table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 16},
		{Title: "Close", Width: 12},
		{Title: "MA5", Width: 9},
		{Title: "MA20", Width: 9},
		{Title: "MA60", Width: 9},
		{Title: "Boll Up", Width: 9},
		{Title: "Boll Low", Width: 9},
		{Title: "DIF", Width: 7},
		{Title: "DEA", Width: 7},
		{Title: "MACD", Width: 7},
		{Title: "RSI", Width: 7},
		{Title: "K", Width: 7},
		{Title: "D", Width: 7},
		{Title: "J", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateTableRows fills the table with series, newest bar first.
func UpdateTableRows(t table.Model, series []types.IndicatorSeries) table.Model {
	rows := make([]table.Row, 0, len(series))

	for i := len(series) - 1; i >= 0; i-- {
		entry := series[i]

		previous := optional.None[float64]()
		if i > 0 {
			previous = types.Finite(series[i-1].Bar.Close)
		}

		rows = append(rows, table.Row{
			entry.Bar.Time.Format("2006-01-02 15:04"),
			FormatCloseWithTrend(types.Finite(entry.Bar.Close), previous),
			FormatValue(entry.MA5),
			FormatValue(entry.MA20),
			FormatValue(entry.MA60),
			FormatValue(entry.BollUpper),
			FormatValue(entry.BollLower),
			FormatValue(entry.Dif),
			FormatValue(entry.Dea),
			FormatValue(entry.MACDBar),
			FormatValue(entry.RSI),
			FormatValue(entry.K),
			FormatValue(entry.D),
			FormatValue(entry.J),
		})
	}

	t.SetRows(rows)
	t.GotoTop()

	return t
}
