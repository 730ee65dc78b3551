package viz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/doodle/internal/compute"
	"github.com/san-kum/doodle/internal/metrics"
	"github.com/san-kum/doodle/internal/render"
	"github.com/san-kum/doodle/internal/viewport"
)

// statusLines is the number of terminal rows below the pattern.
const statusLines = 1

type TickMsg time.Time

// Model is the Bubble Tea model hosting one render session.
type Model struct {
	loop      *render.Loop
	observer  *viewport.Observer
	surface   *TerminalSurface
	backend   string
	interval  time.Duration
	frameTime *metrics.FrameTime
	err       error
}

func NewModel(loop *render.Loop, observer *viewport.Observer, surface *TerminalSurface, backend string, interval time.Duration) Model {
	m := Model{
		loop:      loop,
		observer:  observer,
		surface:   surface,
		backend:   backend,
		interval:  interval,
		frameTime: metrics.NewFrameTime(),
	}
	loop.AddMetric(m.frameTime)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.loop.Stop()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.observer.Observe(msg.Width, max(msg.Height-statusLines, 0)*2)
	case TickMsg:
		if !m.loop.Running() {
			return m, tea.Quit
		}
		if _, err := m.loop.Tick(time.Time(msg)); err != nil {
			m.err = err
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	if m.surface.View() == "" {
		return mutedStyle.Render("waiting for terminal size…")
	}

	var s strings.Builder
	s.WriteString(m.surface.View())
	s.WriteByte('\n')

	res, _ := m.observer.Resolution()
	status := fmt.Sprintf("%s  %v  %.1f ms/frame  %s",
		accentStyle.Render("doodle"),
		res,
		m.frameTime.Value(),
		m.backend,
	)
	if m.err != nil {
		status += "  " + errorStyle.Render(m.err.Error())
	}
	s.WriteString(statusStyle.Render(status))
	s.WriteString(mutedStyle.Render("  q to quit"))
	return s.String()
}

type Options struct {
	Render   render.Options
	Backend  compute.Backend
	Cap      int
	Interval time.Duration
	Logger   *slog.Logger
}

// Run mounts a session in the terminal and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	observer := viewport.NewObserver(opts.Cap)
	surface := NewTerminalSurface()

	ropts := opts.Render
	// the Bubble Tea tick drives the loop
	ropts.Interval = 0
	if opts.Logger != nil {
		ropts.Logger = opts.Logger
	}

	loop := render.New(surface, observer, opts.Backend, ropts)
	m := NewModel(loop, observer, surface, opts.Backend.Name(), opts.Interval)

	if err := loop.Start(ctx); err != nil {
		return err
	}
	defer loop.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
