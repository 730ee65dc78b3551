package clock

import (
	"testing"
	"time"
)

func TestManualTicker(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	tk := m.NewTicker(10 * time.Millisecond)

	m.Advance(5 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	m.Advance(5 * time.Millisecond)
	select {
	case at := <-tk.C():
		if !at.Equal(time.Unix(0, 0).Add(10 * time.Millisecond)) {
			t.Errorf("unexpected tick time %v", at)
		}
	default:
		t.Fatal("expected tick")
	}

	// slow readers lose ticks instead of queueing them
	m.Advance(50 * time.Millisecond)
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("ticks should not queue")
	default:
	}

	tk.Stop()
	if m.Tickers() != 0 {
		t.Errorf("expected no tickers after stop, got %d", m.Tickers())
	}
	m.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestEpochOffset(t *testing.T) {
	period := 2 * time.Hour
	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"epoch start", time.UnixMilli(0), 0},
		{"half period", time.UnixMilli(period.Milliseconds() / 2), 0.5},
		{"wrapped", time.UnixMilli(3*period.Milliseconds() + period.Milliseconds()/4), 0.25},
		{"before unix epoch", time.UnixMilli(-period.Milliseconds() / 4), 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EpochOffset(tt.at, period)
			if got != tt.want {
				t.Errorf("got %g, want %g", got, tt.want)
			}
			if got < 0 || got >= 1 {
				t.Errorf("offset %g out of [0,1)", got)
			}
		})
	}
}

func TestTimeSourceLifecycle(t *testing.T) {
	start := time.UnixMilli(0)
	m := NewManual(start)
	ts, err := NewTimeSource(m, DefaultEpochPeriod, DefaultEpochScale)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if ts.Running() {
		t.Error("time source should start stopped")
	}
	if ts.Phase() != 0 {
		t.Errorf("expected zero phase when stopped, got %g", ts.Phase())
	}

	if err := ts.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ts.Start(); err != ErrRunning {
		t.Errorf("expected ErrRunning, got %v", err)
	}

	m.Advance(1500 * time.Millisecond)
	if got := ts.Phase(); got != 1.5 {
		t.Errorf("expected phase 1.5, got %g", got)
	}

	wantTime := 1.5 + DefaultEpochScale*EpochOffset(m.Now(), DefaultEpochPeriod)
	if got := ts.Time(); got != wantTime {
		t.Errorf("expected time %g, got %g", wantTime, got)
	}

	ts.Stop()
	if ts.Running() || ts.Phase() != 0 {
		t.Error("expected stopped time source with zero phase")
	}

	// a new session restarts the phase at zero
	if err := ts.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if ts.Phase() != 0 {
		t.Errorf("expected phase reset, got %g", ts.Phase())
	}
}

func TestTimeSourceMonotonic(t *testing.T) {
	m := NewManual(time.UnixMilli(1_700_000_000_000))
	ts, _ := NewTimeSource(m, DefaultEpochPeriod, DefaultEpochScale)
	_ = ts.Start()

	prev := ts.Phase()
	for i := 0; i < 100; i++ {
		m.Advance(16 * time.Millisecond)
		p := ts.Phase()
		if p <= prev {
			t.Fatalf("phase not increasing: %g after %g", p, prev)
		}
		prev = p
	}
}

func TestNewTimeSourceBadPeriod(t *testing.T) {
	if _, err := NewTimeSource(nil, 0, 1); err != ErrBadPeriod {
		t.Errorf("expected ErrBadPeriod, got %v", err)
	}
}
