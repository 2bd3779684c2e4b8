// Package tui is the interactive trajectory player: a bubbletea app
// that replays a recorded run in the terminal, one variable at a time.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const frameInterval = time.Second / 30

type tickMsg time.Time

// Model replays a finished run. The first column must be time; the
// remaining columns are selectable traces.
type Model struct {
	title   string
	columns []string
	times   []float64
	series  [][]float64
	events  []float64

	cursor  int
	frame   int
	playing bool
	speed   int
	width   int
	height  int
}

func New(title string, columns []string, rows [][]float64, eventTimes []float64) Model {
	times := make([]float64, len(rows))
	for i, row := range rows {
		times[i] = row[0]
	}
	series := make([][]float64, len(columns)-1)
	for j := range series {
		s := make([]float64, len(rows))
		for i, row := range rows {
			s[i] = row[j+1]
		}
		series[j] = s
	}
	return Model{
		title:   title,
		columns: columns[1:],
		times:   times,
		series:  series,
		events:  eventTimes,
		playing: true,
		speed:   1,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.playing {
			m.frame += m.speed
			if m.frame >= len(m.times) {
				m.frame = 0 // loop
			}
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.frame = 0
		case "left", "h":
			m.playing = false
			if m.frame > 0 {
				m.frame--
			}
		case "right", "l":
			m.playing = false
			if m.frame < len(m.times)-1 {
				m.frame++
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.series)-1 {
				m.cursor++
			}
		case "+", "=":
			if m.speed < 16 {
				m.speed *= 2
			}
		case "-":
			if m.speed > 1 {
				m.speed /= 2
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.times) == 0 || len(m.series) == 0 {
		return "nothing recorded\n"
	}

	var b strings.Builder
	t := m.times[m.frame]
	v := m.series[m.cursor][m.frame]

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("t = "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%-10.4f", t)))
	b.WriteString(labelStyle.Render(m.columns[m.cursor]+" = "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%-12.6g", v)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("frame %d/%d  speed %dx", m.frame+1, len(m.times), m.speed)))
	if n := m.eventsSoFar(t); n > 0 {
		b.WriteString("  ")
		b.WriteString(eventStyle.Render(fmt.Sprintf("%d event(s)", n)))
	}
	b.WriteString("\n\n")

	h := m.height - 8
	if h < 5 {
		h = 5
	}
	w := m.width - 12
	if w < 20 {
		w = 20
	}
	b.WriteString(asciigraph.Plot(m.series[m.cursor][:m.frame+1],
		asciigraph.Height(h),
		asciigraph.Width(w),
	))
	b.WriteString("\n\n")

	names := make([]string, len(m.columns))
	for i, name := range m.columns {
		if i == m.cursor {
			names[i] = activeStyle.Render("[" + name + "]")
		} else {
			names[i] = labelStyle.Render(name)
		}
	}
	b.WriteString(strings.Join(names, " "))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space pause · ←/→ step · ↑/↓ trace · +/- speed · r restart · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) eventsSoFar(t float64) int {
	n := 0
	for _, et := range m.events {
		if et <= t {
			n++
		}
	}
	return n
}
