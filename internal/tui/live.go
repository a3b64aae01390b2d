package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmaitland/pgan/internal/models"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// historyWindow caps the points each loss series keeps for plotting.
const historyWindow = 300

type statsMsg models.EpochStats

type doneMsg struct{ err error }

// monitor is the live training view: one line per loss with its latest
// value, and a plot of the selected series. Tab cycles the plotted loss.
type monitor struct {
	kind   string
	total  int
	ch     <-chan tea.Msg
	start  time.Time
	epoch  int
	names  []string
	latest map[string]float64
	series map[string][]float64
	plot   int
	done   bool
	err    error

	width  int
	height int
}

func newMonitor(kind string, totalEpochs int, ch <-chan tea.Msg) *monitor {
	return &monitor{
		kind:   kind,
		total:  totalEpochs,
		ch:     ch,
		start:  time.Now(),
		latest: make(map[string]float64),
		series: make(map[string][]float64),
		width:  80,
		height: 24,
	}
}

func waitForStats(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m *monitor) Init() tea.Cmd { return waitForStats(m.ch) }

func (m *monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return m, tea.Quit
		case "tab":
			if len(m.names) > 0 {
				m.plot = (m.plot + 1) % len(m.names)
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case statsMsg:
		m.observe(models.EpochStats(msg))
		return m, waitForStats(m.ch)
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m *monitor) observe(s models.EpochStats) {
	m.epoch = s.Epoch
	if len(m.names) == 0 {
		for name := range s.Losses {
			m.names = append(m.names, name)
		}
		sort.Strings(m.names)
	}
	for name, val := range s.Losses {
		m.latest[name] = val
		pts := append(m.series[name], val)
		if len(pts) > historyWindow {
			pts = pts[len(pts)-historyWindow:]
		}
		m.series[name] = pts
	}
}

func (m *monitor) View() string {
	var b strings.Builder

	elapsed := time.Since(m.start).Round(time.Second)
	header := fmt.Sprintf("  %s  epoch %s/%d  %s",
		cyan.Render(m.kind),
		white.Render(fmt.Sprintf("%d", m.epoch)),
		m.total,
		dim.Render(elapsed.String()))
	if m.done {
		if m.err != nil {
			header += "  " + magenta.Render("failed: "+m.err.Error())
		} else {
			header += "  " + green.Render("done")
		}
	}
	b.WriteString(header + "\n\n")

	for i, name := range m.names {
		marker := "  "
		style := white
		if i == m.plot {
			marker = yellow.Render("> ")
			style = yellow
		}
		b.WriteString(fmt.Sprintf("  %s%s %s\n",
			marker,
			dim.Render(fmt.Sprintf("%-16s", name)),
			style.Render(fmt.Sprintf("%12.6f", m.latest[name]))))
	}

	if len(m.names) > 0 {
		name := m.names[m.plot]
		pts := m.series[name]
		if len(pts) > 1 {
			w := m.width - 14
			if w < 20 {
				w = 20
			}
			h := m.height - len(m.names) - 8
			if h < 5 {
				h = 5
			}
			if h > 15 {
				h = 15
			}
			plot := asciigraph.Plot(pts,
				asciigraph.Height(h),
				asciigraph.Width(w),
				asciigraph.Caption(name))
			b.WriteString("\n" + plot + "\n")
		}
	}

	b.WriteString("\n  " + dim.Render("tab: switch loss  q: quit") + "\n")
	return b.String()
}

// Run drives training under a live view. It invokes train in the
// background with an epoch callback that feeds the display, and blocks
// until training completes and the user quits (or quits early, which
// abandons the run). It returns the training error, if any.
func Run(kind string, totalEpochs int, train func(onEpoch func(models.EpochStats)) error) error {
	ch := make(chan tea.Msg, 16)
	mon := newMonitor(kind, totalEpochs, ch)
	prog := tea.NewProgram(mon)

	var trainErr error
	go func() {
		trainErr = train(func(s models.EpochStats) { ch <- statsMsg(s) })
		ch <- doneMsg{err: trainErr}
	}()

	if _, err := prog.Run(); err != nil {
		return err
	}
	return trainErr
}
