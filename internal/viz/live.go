package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/atomsim/internal/world"
)

const (
	width           = 80
	height          = 30
	historyCapacity = 300

	pistonMassFactor = 1.25
	heatFraction     = 0.1
)

type TickMsg time.Time

// Model steps a world on every tick and renders it next to a stats panel.
type Model struct {
	world        *world.World
	name         string
	stepsPerTick int
	tickEvery    time.Duration
	canvas       *Canvas
	frame        world.Frame
	theme        Theme
	running      bool
	showHelp     bool
	initialAtoms int
	tempHistory  []float64
	pressHistory []float64
	status       string
	err          error
}

// NewModel wraps a world for the live view. stepsPerTick integration steps
// run on every redraw.
func NewModel(w *world.World, name string, stepsPerTick int) Model {
	m := Model{
		world:        w,
		name:         name,
		stepsPerTick: max(stepsPerTick, 1),
		tickEvery:    time.Second / 30,
		canvas:       NewCanvas(width, height),
		theme:        Themes[0],
		running:      true,
		initialAtoms: w.Len(),
		tempHistory:  make([]float64, 0, historyCapacity),
		pressHistory: make([]float64, 0, historyCapacity),
	}
	m.refresh()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickEvery, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Err returns the step failure that stopped the view, if any.
func (m Model) Err() error { return m.err }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "g":
			m.world.SetGravity(!m.world.Config().Gravity)
		case "w":
			m.note(m.world.SetWallCollision(!m.world.Config().WallCollision))
		case "p":
			m.world.SetMovingWall(!m.world.Config().MovingWall)
		case "+", "=":
			m.note(m.world.SetPistonMass(m.world.PistonMass() * pistonMassFactor))
		case "-", "_":
			m.note(m.world.SetPistonMass(m.world.PistonMass() / pistonMassFactor))
		case "h":
			m.note(m.world.IncreaseTemperature(heatFraction * m.world.Temperature()))
		case "c":
			m.note(m.world.IncreaseTemperature(-heatFraction * m.world.Temperature()))
		case "t":
			m.theme = next(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.refresh()
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) note(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

// step advances the world and records the observables.
func (m *Model) step() {
	if err := m.world.StepN(m.stepsPerTick); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.refresh()
	m.tempHistory = push(m.tempHistory, m.frame.Temperature)
	m.pressHistory = push(m.pressHistory, m.frame.Pressure)
}

func (m *Model) refresh() {
	f, err := m.world.Frame(false)
	if err != nil {
		m.err = err
		return
	}
	m.frame = f
	m.canvas.DrawFrame(f)
}

func push(h []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return h
	}
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(m.theme))

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED") + "\n" + m.err.Error() + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.tempHistory) > 1 {
		chart := asciigraph.Plot(m.tempHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Temperature"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	f := m.frame
	cfg := m.world.Config()
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", f.Iteration))
	row("Time", fmt.Sprintf("%.2f", f.Time))
	row("Atoms", fmt.Sprintf("%d (-%d)", f.Sample.Atoms, f.Removed))
	if m.initialAtoms > 0 {
		row("", ProgressBar(float64(f.Sample.Atoms)/float64(m.initialAtoms), 20))
	}
	row("Temp", fmt.Sprintf("%.4f", f.Temperature))
	row("Pressure", fmt.Sprintf("%.4g", f.Pressure))
	row("", SparklineChart(m.pressHistory, 20))
	row("Density", fmt.Sprintf("%.4g", f.Density))
	row("Piston y", fmt.Sprintf("%.2f (m=%.3g)", f.PistonY, m.world.PistonMass()))

	s.WriteString("\nSWITCHES\n")
	row("Gravity", Toggle(cfg.Gravity))
	row("Walls", Toggle(cfg.WallCollision))
	row("Piston", Toggle(cfg.MovingWall))

	if m.status != "" {
		s.WriteString("\n" + StatusFailed.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause Q:Quit ?:Help\nG:Gravity W:Walls P:Piston\n+/-:Mass H/C:Heat/Cool T:Theme"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  G        - Toggle gravity           ║
║  W        - Toggle wall collisions   ║
║  P        - Toggle piston            ║
║  +/-      - Piston mass x/÷ 1.25     ║
║  H/C      - Heat/cool by 10%         ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run starts the live view in the alternate screen and blocks until quit.
func Run(w *world.World, name string, stepsPerTick int) error {
	final, err := tea.NewProgram(NewModel(w, name, stepsPerTick), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
