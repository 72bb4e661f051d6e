package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-indicators/internal/types"
)

// Application states.
const (
	StateSymbolInput = iota
	StateModeSelect
	StateLoading
	StateSeriesDisplay
)

// SeriesLoader computes the series of symbol with the given oscillator mode.
type SeriesLoader func(ctx context.Context, symbol string, mode types.OscillatorMode) ([]types.IndicatorSeries, error)

// Model is the main Bubble Tea model for the chart viewer.
type Model struct {
	state       int
	symbolInput textinput.Model
	modeList    list.Model
	seriesTable table.Model
	loader      SeriesLoader
	symbols     []string
	symbol      string
	mode        types.OscillatorMode
	series      []types.IndicatorSeries
	err         error
	width       int
	height      int
}

// NewModel creates a Model that loads series through loader.
// symbols are offered as a hint in the symbol input.
func NewModel(loader SeriesLoader, symbols []string) Model {
	placeholder := "AAPL"
	if len(symbols) > 0 {
		placeholder = strings.Join(symbols, ", ")
	}

	return Model{
		state:       StateSymbolInput,
		symbolInput: NewSymbolInput(placeholder),
		modeList:    NewModeList(),
		seriesTable: NewSeriesTable(),
		loader:      loader,
		symbols:     symbols,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// Only quit on 'q' if not in text input mode
			if m.state != StateSymbolInput {
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.modeList.SetSize(msg.Width, msg.Height-4)
		m.seriesTable.SetWidth(msg.Width)
		m.seriesTable.SetHeight(msg.Height - 6)

		return m, nil

	case SeriesLoadedMsg:
		m.series = msg.Series
		m.err = nil
		m.seriesTable = UpdateTableRows(m.seriesTable, msg.Series)
		m.state = StateSeriesDisplay

		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err
		m.state = StateSeriesDisplay

		return m, nil
	}

	// Delegate to state-specific update
	switch m.state {
	case StateSymbolInput:
		return m.updateSymbolInput(msg)
	case StateModeSelect:
		return m.updateModeSelect(msg)
	case StateSeriesDisplay:
		return m.updateSeriesDisplay(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateModeSelect:
		m.state = StateSymbolInput
		m.symbolInput.Focus()

		return m, textinput.Blink
	case StateSeriesDisplay:
		m.series = nil
		m.err = nil
		m.state = StateModeSelect
	}

	return m, nil
}

func (m Model) updateSymbolInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if symbol := ParseSymbol(m.symbolInput.Value()); symbol != "" {
			m.symbol = symbol
			m.state = StateModeSelect
			m.symbolInput.Blur()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.symbolInput, cmd = m.symbolInput.Update(msg)

	return m, cmd
}

func (m Model) updateModeSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.modeList.SelectedItem().(listItem); ok {
			m.mode = types.OscillatorMode(item.name)
			m.state = StateLoading

			return m, m.loadSeries()
		}
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)

	return m, cmd
}

func (m Model) updateSeriesDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.seriesTable, cmd = m.seriesTable.Update(msg)

	return m, cmd
}

// loadSeries returns a command that runs the loader off the update loop.
func (m Model) loadSeries() tea.Cmd {
	loader, symbol, mode := m.loader, m.symbol, m.mode

	return func() tea.Msg {
		if loader == nil {
			return LoadErrorMsg{Err: fmt.Errorf("no series loader configured")}
		}

		series, err := loader(context.Background(), symbol, mode)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return SeriesLoadedMsg{Symbol: symbol, Series: series}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateSymbolInput:
		s.WriteString(TitleStyle.Render("Argo Indicators - Chart"))
		s.WriteString("\n\n")
		s.WriteString("Enter the symbol to chart:\n\n")
		s.WriteString(m.symbolInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to confirm, ctrl+c to quit"))

	case StateModeSelect:
		s.WriteString(m.modeList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, Esc to go back"))

	case StateLoading:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%s)", m.symbol, m.mode)))
		s.WriteString("\n\n")
		s.WriteString("Computing indicators...\n")

	case StateSeriesDisplay:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%s)", m.symbol, m.mode)))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		} else if len(m.series) == 0 {
			s.WriteString("No bars.\n")
		} else {
			s.WriteString(m.seriesTable.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("q: quit | Esc: back | %d bars", len(m.series))))
	}

	return s.String()
}
