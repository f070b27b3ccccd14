package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/oveklev/pidsim/internal/controller"
	"github.com/oveklev/pidsim/internal/engine"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const plotWindow = 300

type model struct {
	eng     *engine.Engine
	lastErr error

	width  int
	height int
}

// NewLiveApp wraps an engine in an interactive terminal view.
func NewLiveApp(eng *engine.Engine) tea.Model {
	m := &model{eng: eng, width: 100, height: 30}
	eng.OnError(func(err error) { m.lastErr = err })
	return m
}

type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	m.eng.Start()
	return tick(m.eng.TickInterval())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.eng.Tick()
		return m, tick(m.eng.TickInterval())
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.eng.Status()
	switch msg.String() {
	case "q", "ctrl+c", "escape":
		m.eng.Stop()
		return m, tea.Quit
	case " ", "p":
		if st.Paused {
			m.eng.Resume()
		} else {
			m.eng.Pause()
		}
	case "r":
		m.lastErr = nil
		m.eng.Reset()
	case "m":
		if st.Controller.Mode == controller.ModeAuto {
			m.eng.SetControlMode(controller.ModeManual)
		} else {
			m.eng.SetControlMode(controller.ModeAuto)
		}
	case "up", "k":
		m.eng.SetSetpoint(st.TargetSetpoint+1, m.eng.RampRate())
	case "down", "j":
		m.eng.SetSetpoint(st.TargetSetpoint-1, m.eng.RampRate())
	case "+", "=":
		m.eng.SetSimulationSpeed(st.Speed * 2)
	case "-", "_":
		m.eng.SetSimulationSpeed(st.Speed / 2)
	case "0":
		m.eng.SetSimulationSpeed(1.0)
	case "d":
		m.eng.ApplyStepDisturbance(5.0)
	case "D":
		m.eng.ApplyStepDisturbance(-5.0)
	}
	return m, nil
}

func (m *model) View() string {
	st := m.eng.Status()
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case st.Paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	case !st.Running:
		statusIcon = dim.Render("○")
		statusText = dim.Render("stopped")
	}

	modeText := green.Render("auto")
	if st.Controller.Mode == controller.ModeManual {
		modeText = magenta.Render("manual")
	}

	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s  %s\n",
		statusIcon, cyan.Render("pidsim"), statusText, modeText,
		dim.Render(fmt.Sprintf("t=%.1fs  %.2gx", st.Time, st.Speed))))
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 60)) + "\n")

	if m.lastErr != nil {
		b.WriteString("   " + red.Render("error: "+m.lastErr.Error()) + "\n")
	}

	snap := m.eng.History()
	if n := len(snap); n > plotWindow {
		snap = snap[n-plotWindow:]
	}

	if len(snap) > 1 {
		pv := make([]float64, len(snap))
		sp := make([]float64, len(snap))
		out := make([]float64, len(snap))
		for i, s := range snap {
			pv[i] = s.Value
			sp[i] = s.Setpoint
			out[i] = s.Output
		}

		width := m.width - 14
		if width < 40 {
			width = 40
		}
		if width > 100 {
			width = 100
		}

		chart := asciigraph.PlotMany([][]float64{sp, pv},
			asciigraph.Height(12),
			asciigraph.Width(width),
			asciigraph.Caption("setpoint / process value"))
		b.WriteString("\n" + indent(chart, 3) + "\n")

		b.WriteString(fmt.Sprintf("\n   %s %s\n",
			dim.Render("output"), yellow.Render(sparkline(out, 50))))
	}

	if st.Latest != nil {
		s := st.Latest
		b.WriteString(fmt.Sprintf("\n   %s%s  %s%s  %s%s  %s%s\n",
			dim.Render("sp="), white.Render(fmt.Sprintf("%.2f", s.Setpoint)),
			dim.Render("pv="), white.Render(fmt.Sprintf("%.2f", s.Value)),
			dim.Render("out="), white.Render(fmt.Sprintf("%.2f", s.Output)),
			dim.Render("err="), white.Render(fmt.Sprintf("%+.2f", s.Error))))
	}

	rep := m.eng.Metrics()
	line := fmt.Sprintf("   %s%s  %s%s  %s%s",
		dim.Render("IAE="), white.Render(fmt.Sprintf("%.1f", rep.IAE)),
		dim.Render("ISE="), white.Render(fmt.Sprintf("%.1f", rep.ISE)),
		dim.Render("σ="), white.Render(fmt.Sprintf("%.3f", rep.RollingStd)))
	if rep.Step.Overshoot != nil {
		line += fmt.Sprintf("  %s%s", dim.Render("ovs="),
			white.Render(fmt.Sprintf("%.1f%%", *rep.Step.Overshoot)))
	}
	if rep.Step.SettlingTime != nil {
		line += fmt.Sprintf("  %s%s", dim.Render("ts="),
			white.Render(fmt.Sprintf("%.1fs", *rep.Step.SettlingTime)))
	}
	b.WriteString(line + "\n")

	b.WriteString("\n" + dim.Render("   ↑↓ setpoint  space pause  m mode  ±speed  d/D disturb  r reset  q quit") + "\n")

	return b.String()
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// RunLive starts the interactive view and blocks until the user quits.
func RunLive(eng *engine.Engine) error {
	p := tea.NewProgram(NewLiveApp(eng), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
