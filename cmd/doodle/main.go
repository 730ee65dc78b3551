package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/doodle/internal/clock"
	"github.com/san-kum/doodle/internal/compute"
	"github.com/san-kum/doodle/internal/config"
	"github.com/san-kum/doodle/internal/metrics"
	"github.com/san-kum/doodle/internal/render"
	"github.com/san-kum/doodle/internal/storage"
	"github.com/san-kum/doodle/internal/viewport"
	"github.com/san-kum/doodle/internal/viz"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	backend    string
	workers    int
	fps        int
	resCap     int
	logLevel   string
	logFile    string
	// headless and bench surface
	width    int
	height   int
	duration time.Duration
	frames   int
	save     bool
	dataDir  string
)

// main registers the doodle commands and runs the live terminal view when
// no subcommand is given. It exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "doodle",
		Short:        "animated domain-warped noise pattern",
		SilenceUsage: true,
		RunE:         runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "palette preset")
	pf.StringVar(&backend, "backend", config.DefaultBackend, "compute backend (auto, cpu, opengl)")
	pf.IntVar(&workers, "workers", 0, "cpu workers (0 = all cores)")
	pf.IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	pf.IntVar(&resCap, "cap", viewport.DefaultCap, "render resolution cap")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "log file for the live view")
	pf.StringVar(&dataDir, "data", ".doodle", "directory for saved bench runs")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "render live in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "render to an in-memory surface and report frame stats",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	headlessCmd.Flags().IntVar(&width, "width", 800, "surface width")
	headlessCmd.Flags().IntVar(&height, "height", 400, "surface height")
	headlessCmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "render a fixed number of frames on a simulated clock",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&width, "width", 800, "surface width")
	benchCmd.Flags().IntVar(&height, "height", 400, "surface height")
	benchCmd.Flags().IntVar(&frames, "frames", 120, "frames to render")
	benchCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")

	runsCmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "list saved bench runs, or plot the frame times of one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listRuns,
	}

	resolutionCmd := &cobra.Command{
		Use:   "resolution [width] [height]",
		Short: "print the capped render resolution for a surface size",
		Args:  cobra.ExactArgs(2),
		RunE:  printResolution,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list palette presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s palette=%v bands=%d\n", name, p.Palette, p.Bands)
			}
		},
	}

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list compute backends and whether this host supports them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range compute.Names() {
				b, err := compute.New(name, workers)
				if err != nil {
					return err
				}
				fmt.Printf("  %-7s %-32s available=%t\n", name, b.Name(), b.Available())
				b.Cleanup()
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, headlessCmd, benchCmd, resolutionCmd, presetsCmd, backendsCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("cap") {
		cfg.ResolutionCap = resCap
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func renderOptions(cfg *config.Config, logger *slog.Logger) render.Options {
	opts := render.DefaultOptions()
	opts.Palette = cfg.PaletteConstant()
	opts.Program = cfg.Program()
	opts.EpochPeriod = cfg.EpochPeriod
	opts.EpochScale = cfg.EpochScale
	opts.NoEpochDrift = cfg.EpochScale == 0
	opts.Interval = cfg.Interval()
	opts.Logger = logger
	return opts
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the terminal belongs to the view; logs go to a file or nowhere
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger, err := newLogger(out)
	if err != nil {
		return err
	}

	b, err := compute.New(cfg.Backend, cfg.Workers)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	return viz.Run(ctx, viz.Options{
		Render:   renderOptions(cfg, logger),
		Backend:  b,
		Cap:      cfg.ResolutionCap,
		Interval: cfg.Interval(),
		Logger:   logger,
	})
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	b, err := compute.New(cfg.Backend, cfg.Workers)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	observer := viewport.NewObserver(cfg.ResolutionCap)
	observer.Observe(width, height)
	surface := render.NewImageSurface()

	loop := render.New(surface, observer, b, renderOptions(cfg, logger))
	frameTime := metrics.NewFrameTime()
	throughput := metrics.NewThroughput()
	loop.AddMetric(frameTime)
	loop.AddMetric(throughput)

	ctx, cancel := signalContext()
	defer cancel()
	ctx, stop := context.WithTimeout(ctx, duration)
	defer stop()

	if err := loop.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	loop.Stop()

	res, _ := observer.Resolution()
	fmt.Printf("surface     %dx%d\n", width, height)
	fmt.Printf("render      %v (cap %d)\n", res, cfg.ResolutionCap)
	fmt.Printf("backend     %s\n", b.Name())
	fmt.Printf("frames      %s of %s ticks\n", humanize.Comma(int64(loop.Frames())), humanize.Comma(int64(loop.Ticks())))
	fmt.Printf("frame time  %.2f ms\n", frameTime.Value())
	fmt.Printf("throughput  %s\n", humanize.SIWithDigits(throughput.Value(), 2, "px/s"))
	if err := loop.Err(); err != nil {
		return err
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	if frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", frames)
	}

	b, err := compute.New(cfg.Backend, cfg.Workers)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	observer := viewport.NewObserver(cfg.ResolutionCap)
	observer.Observe(width, height)
	res, ok := observer.Resolution()
	if !ok {
		return fmt.Errorf("surface %dx%d has no area", width, height)
	}

	manual := clock.NewManual(time.Now())
	opts := renderOptions(cfg, logger)
	opts.Clock = manual
	opts.Interval = 0

	loop := render.New(render.NewImageSurface(), observer, b, opts)
	history := metrics.NewHistory(frames)
	frameTime := metrics.NewFrameTime()
	throughput := metrics.NewThroughput()
	recorder := metrics.NewRecorder()
	loop.AddMetric(history)
	loop.AddMetric(frameTime)
	loop.AddMetric(throughput)
	loop.AddMetric(recorder)

	if err := loop.Start(context.Background()); err != nil {
		return err
	}
	defer loop.Stop()

	start := time.Now()
	interval := cfg.Interval()
	for i := 0; i < frames; i++ {
		manual.Advance(interval)
		if _, err := loop.Tick(manual.Now()); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	fmt.Println(asciigraph.Plot(history.Samples(),
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("frame time (ms), %v on %s", res, b.Name())),
	))
	fmt.Println()
	fmt.Printf("frames      %s (%s px each)\n", humanize.Comma(int64(loop.Frames())), humanize.Comma(int64(res.Pixels())))
	fmt.Printf("wall time   %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("mean        %.2f ms/frame\n", frameTime.Value())
	fmt.Printf("worst       %.2f ms/frame\n", history.Value())
	fmt.Printf("throughput  %s\n", humanize.SIWithDigits(throughput.Value(), 2, "px/s"))
	fmt.Printf("budget      %.1f fps at %d fps target\n", float64(frames)/elapsed.Seconds(), cfg.FPS)

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Backend:       b.Name(),
		SurfaceWidth:  width,
		SurfaceHeight: height,
		RenderWidth:   res.Width,
		RenderHeight:  res.Height,
		Palette:       cfg.Palette,
		Metrics: map[string]float64{
			frameTime.Name():  frameTime.Value(),
			history.Name():    history.Value(),
			throughput.Name(): throughput.Value(),
		},
	}, recorder.Frames())
	if err != nil {
		return err
	}
	logger.Info("bench run saved", "id", runID, "dir", dataDir)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if len(args) == 1 {
		return showRun(st, args[0])
	}

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("  %-28s %-8s %4dx%-4d %5d frames  %6.2f ms  %s\n",
			r.ID, r.Backend, r.RenderWidth, r.RenderHeight, r.Frames,
			r.Metrics["frame_ms"], humanize.Time(r.Timestamp))
	}
	return nil
}

func printResolution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", args[0], err)
	}
	h, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[1], err)
	}
	res, ok := viewport.Compute(w, h, cfg.ResolutionCap)
	if !ok {
		fmt.Println("not ready: surface has no area")
		return nil
	}
	fmt.Println(res)
	return nil
}

func showRun(st *storage.Store, id string) error {
	meta, err := st.Load(id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	times, err := st.LoadFrameTimes(id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	if len(times) == 0 {
		fmt.Printf("run %s has no frames\n", id)
		return nil
	}

	fmt.Println(asciigraph.Plot(times,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("frame time (ms), %dx%d on %s", meta.RenderWidth, meta.RenderHeight, meta.Backend)),
	))
	fmt.Println()
	fmt.Printf("recorded    %s\n", humanize.Time(meta.Timestamp))
	fmt.Printf("frames      %s\n", humanize.Comma(int64(meta.Frames)))
	for _, name := range []string{"frame_ms", "frame_ms_max", "pixels_per_sec"} {
		if v, ok := meta.Metrics[name]; ok {
			fmt.Printf("%-16s%.2f\n", name, v)
		}
	}
	return nil
}
