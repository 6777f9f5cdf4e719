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

	"github.com/gokhanalcan/tox/internal/lab"
	"github.com/gokhanalcan/tox/internal/mpc"
	"github.com/gokhanalcan/tox/internal/ocp"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	defaultFPS      = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model is a Bubble Tea program that runs one planning cycle per frame
// and renders the true state next to the solver statistics.
type Model struct {
	exp  *lab.Experiment
	sess *mpc.Session
	ctx  context.Context

	state  ocp.State
	action ocp.Control
	goal   []float64
	cost   float64
	iters  int
	step   int
	steps  int
	period float64

	modelName     string
	width, height int
	frame         time.Duration
	canvas        *Canvas
	trail         []struct{ x, y int }
	costHistory   []float64
	running       bool
	err           error
}

// NewModel opens a session for the experiment and prepares the view.
// fps bounds how many planning cycles run per second; values outside
// (0, 120] fall back to the default.
func NewModel(ctx context.Context, exp *lab.Experiment, fps int) (Model, error) {
	sess, err := exp.Start()
	if err != nil {
		return Model{}, err
	}
	if fps <= 0 || fps > 120 {
		fps = defaultFPS
	}
	cfg := exp.Config()
	return Model{
		exp:         exp,
		sess:        sess,
		ctx:         ctx,
		state:       sess.State(),
		goal:        cfg.GoalState,
		steps:       cfg.Steps,
		period:      exp.Loop().ControlPeriod(),
		modelName:   cfg.Model,
		width:       width,
		height:      height,
		frame:       time.Second / time.Duration(fps),
		canvas:      NewCanvas(width, height),
		trail:       make([]struct{ x, y int }, 0, 100),
		costHistory: make([]float64, 0, historyCapacity),
		running:     true,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and advances the run.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.sess.Done() && m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.restart()
		}
	case TickMsg:
		if m.running && m.err == nil && !m.sess.Done() {
			m.advance()
		}
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

// advance runs one solve-apply-advance cycle.
func (m *Model) advance() {
	info, err := m.sess.Step(m.ctx)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.state = info.State
	m.action = info.Action
	m.cost = info.Cost
	m.iters = info.Iters
	m.step = info.Step + 1
	m.costHistory = append(m.costHistory, info.Cost)
	if len(m.costHistory) > historyCapacity {
		m.costHistory = m.costHistory[1:]
	}
	if m.sess.Done() {
		m.running = false
	}
}

// restart opens a fresh session from the configured initial state.
func (m *Model) restart() {
	sess, err := m.exp.Start()
	if err != nil {
		m.err = err
		return
	}
	m.sess = sess
	m.state = sess.State()
	m.action = nil
	m.cost = 0
	m.iters = 0
	m.step = 0
	m.trail = m.trail[:0]
	m.costHistory = m.costHistory[:0]
	m.err = nil
	m.running = true
}

// View renders the canvas beside the statistics panel.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.modelName)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.costHistory) > 1 {
		chart := asciigraph.Plot(m.costHistory,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.Caption("Cost"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d/%d", m.step, m.steps)) + "\n")
	s.WriteString(labelStyle.Render("") + ProgressBar(float64(m.step)/float64(m.steps), 20) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", float64(m.step)*m.period)) + "\n")
	s.WriteString(labelStyle.Render("Cost") + valueStyle.Render(fmt.Sprintf("%.3f", m.cost)) + "\n")
	s.WriteString(labelStyle.Render("Iterations") + valueStyle.Render(fmt.Sprintf("%d", m.iters)) + "\n")
	s.WriteString(labelStyle.Render("Action") + valueStyle.Render(formatVec(m.action)) + "\n")
	s.WriteString(labelStyle.Render("State") + valueStyle.Render(formatVec(m.state)) + "\n")

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(fmt.Sprintf("solver failed: %v", m.err)) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Restart Q:Quit"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return "FAILED"
	case m.sess.Done():
		return "FINISHED"
	case !m.running:
		return "PAUSED"
	}
	return "RUNNING"
}

func formatVec(v []float64) string {
	if len(v) == 0 {
		return "-"
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.2f", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// dims returns the dot-space width, height and center.
func (m *Model) dims() (int, int, int, int) {
	cw, ch := m.width*2, m.height*4
	return cw, ch, cw / 2, ch / 2
}

func (m *Model) draw() {
	m.canvas.Clear()
	switch m.modelName {
	case "pendulum":
		m.drawPendulum()
	case "cartpole":
		m.drawCartpole()
	case "double_pendulum":
		m.drawDoublePendulum()
	case "drone":
		m.drawDrone()
	default:
		m.drawGeneric()
	}
}

// drawPendulum renders the rod from a fixed pivot with theta measured
// from the hanging position, matching the plant convention.
func (m *Model) drawPendulum() {
	if len(m.state) < 2 {
		return
	}
	theta := m.state[0]
	_, ch, cx, _ := m.dims()
	cy, length := 8, float64(ch)*0.75
	bx, by := cx+int(length*math.Sin(theta)), cy+int(length*math.Cos(theta))

	m.trail = append(m.trail, struct{ x, y int }{bx, by})
	if len(m.trail) > 100 {
		m.trail = m.trail[1:]
	}
	for _, pt := range m.trail {
		m.canvas.Set(pt.x, pt.y)
	}

	if len(m.goal) > 0 {
		m.drawGoalMarker(cx+int(length*math.Sin(m.goal[0])), cy+int(length*math.Cos(m.goal[0])))
	}

	m.canvas.Set(cx, cy)
	m.canvas.DrawLine(cx, cy, bx, by)
	m.canvas.FillRect(bx-1, by-1, bx+1, by+1)
}

// drawCartpole renders the cart on a ground line with the pole angle
// measured from upright.
func (m *Model) drawCartpole() {
	if len(m.state) < 4 {
		return
	}
	pos, theta := m.state[0], m.state[2]
	cw, ch, cx, _ := m.dims()
	groundY := ch - 12
	cartX := cx + int(pos*20)

	m.canvas.DrawLine(0, groundY+4, cw, groundY+4)
	m.canvas.FillRect(cartX-6, groundY, cartX+6, groundY+3)

	poleLen := float64(ch) * 0.6
	px, py := cartX+int(poleLen*math.Sin(theta)), groundY-int(poleLen*math.Cos(theta))
	m.canvas.DrawLine(cartX, groundY, px, py)
	m.canvas.FillRect(px-1, py-1, px+1, py+1)

	if len(m.goal) >= 3 {
		gx := cx + int(m.goal[0]*20)
		m.drawGoalMarker(gx+int(poleLen*math.Sin(m.goal[2])), groundY-int(poleLen*math.Cos(m.goal[2])))
	}
}

// drawDoublePendulum renders both links from a fixed pivot, with the trail
// following the free end.
func (m *Model) drawDoublePendulum() {
	if len(m.state) < 4 {
		return
	}
	theta1, theta2 := m.state[0], m.state[1]
	_, ch, cx, _ := m.dims()
	cy, link := 8, float64(ch)*0.4
	ex, ey := cx+int(link*math.Sin(theta1)), cy+int(link*math.Cos(theta1))
	bx, by := ex+int(link*math.Sin(theta2)), ey+int(link*math.Cos(theta2))

	m.trail = append(m.trail, struct{ x, y int }{bx, by})
	if len(m.trail) > 100 {
		m.trail = m.trail[1:]
	}
	for _, pt := range m.trail {
		m.canvas.Set(pt.x, pt.y)
	}

	if len(m.goal) >= 2 {
		gx := cx + int(link*math.Sin(m.goal[0]))
		gy := cy + int(link*math.Cos(m.goal[0]))
		m.drawGoalMarker(gx+int(link*math.Sin(m.goal[1])), gy+int(link*math.Cos(m.goal[1])))
	}

	m.canvas.Set(cx, cy)
	m.canvas.DrawLine(cx, cy, ex, ey)
	m.canvas.FillRect(ex-1, ey-1, ex+1, ey+1)
	m.canvas.DrawLine(ex, ey, bx, by)
	m.canvas.FillRect(bx-1, by-1, bx+1, by+1)
}

// drawDrone renders the body as a tilted arm with a rotor at each tip.
func (m *Model) drawDrone() {
	if len(m.state) < 6 {
		return
	}
	x, y, theta := m.state[0], m.state[1], m.state[2]
	_, _, cx, cy := m.dims()
	scale, arm := 40.0, 10.0
	bx, by := cx+int(x*scale), cy-int(y*scale)

	m.trail = append(m.trail, struct{ x, y int }{bx, by})
	if len(m.trail) > 100 {
		m.trail = m.trail[1:]
	}
	for _, pt := range m.trail {
		m.canvas.Set(pt.x, pt.y)
	}

	if len(m.goal) >= 2 {
		m.drawGoalMarker(cx+int(m.goal[0]*scale), cy-int(m.goal[1]*scale))
	}

	lx, ly := bx-int(arm*math.Cos(theta)), by+int(arm*math.Sin(theta))
	rx, ry := bx+int(arm*math.Cos(theta)), by-int(arm*math.Sin(theta))
	m.canvas.DrawLine(lx, ly, rx, ry)
	m.canvas.FillRect(bx-1, by-1, bx+1, by+1)
	m.canvas.FillRect(lx-1, ly-2, lx+1, ly-1)
	m.canvas.FillRect(rx-1, ry-2, rx+1, ry-1)
}

// drawGeneric renders state components as centered bars.
func (m *Model) drawGeneric() {
	_, _, _, cy := m.dims()
	barWidth, gap := 8, 4
	totalW := len(m.state) * (barWidth + gap)
	startX := (m.width*2 - totalW) / 2
	for i, v := range m.state {
		h, bx := int(v*10), startX+i*(barWidth+gap)
		m.canvas.FillRect(bx, cy-h, bx+barWidth-1, cy)
	}
}

// drawGoalMarker puts a small cross where the target configuration sits.
func (m *Model) drawGoalMarker(x, y int) {
	m.canvas.Set(x-2, y)
	m.canvas.Set(x+2, y)
	m.canvas.Set(x, y-2)
	m.canvas.Set(x, y+2)
}
