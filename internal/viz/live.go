package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/metrics"
	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

const (
	canvasCols      = 60
	canvasRows      = 24
	trailLength     = 200
	historyCapacity = 600
	maxTableRows    = 10
)

type TickMsg time.Time

type point struct{ x, y float64 }

// LiveModel steps a simulator on a timer and draws the bodies as they move.
// It quits once the configured total time is reached.
type LiveModel struct {
	sim    *dynamo.Simulator
	cfg    dynamo.Config
	title  string
	canvas *Canvas

	// StepsPerTick is how many simulator steps run per frame.
	StepsPerTick int
	// Frame is the tick interval.
	Frame time.Duration

	trails  [][]point
	drift   *metrics.EnergyDrift
	energy  []float64
	step    int
	t       float64
	running bool
	done    bool
	err     error
}

func NewLiveModel(sim *dynamo.Simulator, cfg dynamo.Config, radius float64, title string) LiveModel {
	m := LiveModel{
		sim:          sim,
		cfg:          cfg,
		title:        title,
		canvas:       NewCanvas(canvasCols, canvasRows, radius),
		StepsPerTick: 1,
		Frame:        time.Second / 30,
		trails:       make([][]point, sim.Bodies().Len()),
		drift:        metrics.NewEnergyDrift(),
		energy:       make([]float64, 0, historyCapacity),
		running:      true,
	}
	m.sample()
	return m
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(m.Frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			if !m.done {
				m.running = !m.running
			}
		}
	case TickMsg:
		if m.done {
			return m, tea.Quit
		}
		if m.running {
			m.advance()
		}
		if m.done {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) advance() {
	for i := 0; i < m.StepsPerTick; i++ {
		if m.t >= m.cfg.TotalTime {
			m.done = true
			return
		}
		if err := m.sim.Step(context.Background(), m.cfg.Dt); err != nil {
			m.err, m.done = err, true
			return
		}
		m.step++
		m.t += m.cfg.Dt
		if m.cfg.ValidateState {
			if err := m.sim.CheckState(m.step, m.t); err != nil {
				m.err, m.done = err, true
				return
			}
		}
	}
	m.sample()
	if m.t >= m.cfg.TotalTime {
		m.done = true
	}
}

func (m *LiveModel) sample() {
	v := m.sim.Bodies()
	for k := 0; k < v.Len() && k < len(m.trails); k++ {
		b := v.At(k)
		m.trails[k] = append(m.trails[k], point{b.X(), b.Y()})
		if len(m.trails[k]) > trailLength {
			m.trails[k] = m.trails[k][1:]
		}
	}
	m.drift.Observe(v, m.t)
	m.energy = append(m.energy, m.drift.Current())
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

// Steps returns the number of steps taken so far.
func (m LiveModel) Steps() int { return m.step }

// Time returns the simulated time so far.
func (m LiveModel) Time() float64 { return m.t }

// Done reports whether the run has finished, either by reaching the total
// time or by a failed step.
func (m LiveModel) Done() bool { return m.done }

func (m LiveModel) Err() error { return m.err }

func (m LiveModel) draw() string {
	m.canvas.Clear()
	for _, trail := range m.trails {
		for _, p := range trail {
			m.canvas.Plot(p.x, p.y)
		}
	}
	v := m.sim.Bodies()
	for k := 0; k < v.Len(); k++ {
		b := v.At(k)
		m.canvas.Mark(b.X(), b.Y())
	}
	return canvasStyle.Render(m.canvas.String())
}

func (m LiveModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(statusError.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(statusRunning.Render("DONE") + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	fraction := 1.0
	if m.cfg.TotalTime > 0 {
		fraction = m.t / m.cfg.TotalTime
	}
	s.WriteString(ProgressBar(fraction, 30) + fmt.Sprintf(" %3.0f%%\n", 100*fraction))
	s.WriteString(row("step", fmt.Sprintf("%d", m.step)) + "\n")
	s.WriteString(row("time", fmt.Sprintf("%.4e s", m.t)) + "\n")
	if n := len(m.energy); n > 0 {
		s.WriteString(row("energy", fmt.Sprintf("%.4e J", m.energy[n-1])) + "\n")
		s.WriteString(row("energy drift", fmt.Sprintf("%.3e", m.drift.Value())) + "\n")
	}
	cx, cy := physics.CenterOfMass(m.sim.Bodies())
	s.WriteString(row("centre of mass", fmt.Sprintf("%.3e, %.3e", cx, cy)) + "\n")
	if series := finite(m.energy); len(series) > 1 {
		chart := asciigraph.Plot(series, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("energy"))
		s.WriteString("\n" + chart + "\n")
	}

	s.WriteString("\n" + m.table())
	s.WriteString(hintStyle.Render("\nspace: pause  q: quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.draw(), panelStyle.Render(s.String()))
}

func (m LiveModel) table() string {
	var b strings.Builder
	v := m.sim.Bodies()
	fmt.Fprintf(&b, "%-12s %11s %11s\n", "body", "x", "y")
	for k := 0; k < v.Len() && k < maxTableRows; k++ {
		body := v.At(k)
		fmt.Fprintf(&b, "%-12s %11.4e %11.4e\n", body.Tag(), body.X(), body.Y())
	}
	if v.Len() > maxTableRows {
		fmt.Fprintf(&b, "... %d more\n", v.Len()-maxTableRows)
	}
	return b.String()
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
