package viz

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/doodle/internal/clock"
	"github.com/san-kum/doodle/internal/compute"
	"github.com/san-kum/doodle/internal/render"
	"github.com/san-kum/doodle/internal/viewport"
)

func newTestModel(t *testing.T) (Model, *render.Loop, *clock.Manual) {
	t.Helper()
	manual := clock.NewManual(time.UnixMilli(0))
	observer := viewport.NewObserver(64)
	surface := NewTerminalSurface()

	opts := render.DefaultOptions()
	opts.Clock = manual
	opts.Interval = 0
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	loop := render.New(surface, observer, compute.NewCPUBackend(2), opts)
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(loop.Stop)
	return NewModel(loop, observer, surface, "cpu", time.Second/30), loop, manual
}

func TestModelWaitsForSize(t *testing.T) {
	m, loop, manual := newTestModel(t)

	next, cmd := m.Update(TickMsg(manual.Now()))
	if cmd == nil {
		t.Error("expected tick to be rescheduled")
	}
	if loop.Frames() != 0 {
		t.Errorf("expected no frames before sizing, got %d", loop.Frames())
	}
	if !strings.Contains(next.View(), "waiting") {
		t.Errorf("unexpected view %q", next.View())
	}
}

func TestModelRendersAfterResize(t *testing.T) {
	m, loop, manual := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 11})
	manual.Advance(time.Second / 30)
	next, _ = next.Update(TickMsg(manual.Now()))

	if loop.Frames() != 1 {
		t.Fatalf("expected 1 frame, got %d", loop.Frames())
	}
	view := next.View()
	// 10 pattern rows plus the status line
	if got := strings.Count(view, "\n"); got != 10 {
		t.Errorf("expected 10 line breaks, got %d", got)
	}
	if strings.Count(view, upperHalf) != 200 {
		t.Errorf("expected 200 half blocks, got %d", strings.Count(view, upperHalf))
	}
}

func TestModelQuitStopsLoop(t *testing.T) {
	m, loop, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if loop.Running() {
		t.Error("loop still running after quit")
	}
}

func TestHalfBlocksOddHeight(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetRGBA(0, 2, color.RGBA{255, 0, 0, 255})

	out := HalfBlocks(img)
	if got := strings.Count(out, "\n"); got != 1 {
		t.Errorf("expected 2 rows, got %d line breaks", got)
	}
	if got := strings.Count(out, upperHalf); got != 6 {
		t.Errorf("expected 6 cells, got %d", got)
	}
}
