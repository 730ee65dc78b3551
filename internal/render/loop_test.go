package render_test

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/doodle/internal/clock"
	"github.com/san-kum/doodle/internal/compute"
	"github.com/san-kum/doodle/internal/metrics"
	"github.com/san-kum/doodle/internal/render"
	"github.com/san-kum/doodle/internal/shader"
	"github.com/san-kum/doodle/internal/viewport"
)

const interval = 16 * time.Millisecond

type fakeBackend struct {
	available bool
	err       error
	calls     atomic.Int32
}

func (f *fakeBackend) Name() string    { return "fake" }
func (f *fakeBackend) Available() bool { return f.available }
func (f *fakeBackend) Cleanup()        {}

func (f *fakeBackend) Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error {
	f.calls.Add(1)
	return f.err
}

// blockingBackend holds every Shade call until release is closed.
type blockingBackend struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingBackend) Name() string    { return "blocking" }
func (b *blockingBackend) Available() bool { return true }
func (b *blockingBackend) Cleanup()        {}

func (b *blockingBackend) Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return nil
}

func quietOptions(c clock.Clock, every time.Duration) render.Options {
	opts := render.DefaultOptions()
	opts.Clock = c
	opts.Interval = every
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

var _ = Describe("Scheduler", func() {
	var manual *clock.Manual

	BeforeEach(func() {
		manual = clock.NewManual(time.UnixMilli(0))
	})

	It("calls back once per tick", func() {
		var n atomic.Int32
		s := render.NewScheduler(manual, interval, func(time.Time) { n.Add(1) })
		Expect(s.Start()).To(Succeed())
		defer s.Stop()

		manual.Advance(interval)
		Eventually(n.Load).Should(BeEquivalentTo(1))
		manual.Advance(interval)
		Eventually(n.Load).Should(BeEquivalentTo(2))
	})

	It("never calls back after Stop returns", func() {
		var n atomic.Int32
		s := render.NewScheduler(manual, interval, func(time.Time) { n.Add(1) })
		Expect(s.Start()).To(Succeed())

		manual.Advance(interval)
		Eventually(n.Load).Should(BeEquivalentTo(1))

		s.Stop()
		Expect(s.Running()).To(BeFalse())
		Expect(manual.Tickers()).To(Equal(0))

		manual.Advance(10 * interval)
		Consistently(n.Load, 100*time.Millisecond).Should(BeEquivalentTo(1))
	})

	It("rejects a second Start and a zero interval", func() {
		s := render.NewScheduler(manual, interval, func(time.Time) {})
		Expect(s.Start()).To(Succeed())
		defer s.Stop()
		Expect(s.Start()).To(MatchError(render.ErrAlreadyRunning))

		bad := render.NewScheduler(manual, 0, func(time.Time) {})
		Expect(bad.Start()).To(MatchError(render.ErrBadInterval))
	})
})

var _ = Describe("Loop", func() {
	var (
		manual   *clock.Manual
		observer *viewport.Observer
		surface  *render.ImageSurface
		backend  compute.Backend
	)

	BeforeEach(func() {
		manual = clock.NewManual(time.UnixMilli(0))
		observer = viewport.NewObserver(16)
		surface = render.NewImageSurface()
		backend = compute.NewCPUBackend(2)
	})

	Context("self-driven", func() {
		var loop *render.Loop

		BeforeEach(func() {
			loop = render.New(surface, observer, backend, quietOptions(manual, interval))
			Expect(loop.Start(context.Background())).To(Succeed())
			DeferCleanup(loop.Stop)
		})

		It("renders nothing while the viewport is unmeasured", func() {
			manual.Advance(interval)
			Eventually(loop.Ticks).Should(BeNumerically(">=", 1))
			Consistently(surface.Presents, 50*time.Millisecond).Should(Equal(0))
		})

		It("presents a nearest-neighbor upscale at display size", func() {
			observer.Observe(80, 40)
			manual.Advance(interval)
			Eventually(surface.Presents).Should(BeNumerically(">=", 1))

			img := surface.Image()
			Expect(img.Bounds()).To(Equal(image.Rect(0, 0, 80, 40)))
			// render grid is 16x8, so every 5x5 block is one sample
			for by := 0; by < 8; by++ {
				for bx := 0; bx < 16; bx++ {
					want := img.RGBAAt(bx*5, by*5)
					for y := by * 5; y < by*5+5; y++ {
						for x := bx * 5; x < bx*5+5; x++ {
							Expect(img.RGBAAt(x, y)).To(Equal(want))
						}
					}
				}
			}
		})

		It("picks up a resize on the next tick", func() {
			observer.Observe(80, 40)
			manual.Advance(interval)
			Eventually(surface.Presents).Should(BeNumerically(">=", 1))

			observer.Observe(30, 60)
			manual.Advance(interval)
			Eventually(func() image.Rectangle { return surface.Image().Bounds() }).
				Should(Equal(image.Rect(0, 0, 30, 60)))
		})

		It("stops ticking after Stop", func() {
			observer.Observe(32, 32)
			manual.Advance(interval)
			Eventually(loop.Frames).Should(BeNumerically(">=", 1))

			loop.Stop()
			Expect(loop.Running()).To(BeFalse())
			ticks := loop.Ticks()

			manual.Advance(interval)
			manual.Advance(interval)
			Consistently(loop.Ticks, 100*time.Millisecond).Should(Equal(ticks))
			Expect(manual.Tickers()).To(Equal(0))
		})

		It("refuses a second Start", func() {
			Expect(loop.Start(context.Background())).To(MatchError(render.ErrAlreadyRunning))
		})
	})

	It("stops when the context is cancelled", func() {
		loop := render.New(surface, observer, backend, quietOptions(manual, interval))
		ctx, cancel := context.WithCancel(context.Background())
		Expect(loop.Start(ctx)).To(Succeed())
		Expect(loop.SessionID()).NotTo(BeEmpty())

		cancel()
		Eventually(loop.Running).Should(BeFalse())
	})

	Context("host-driven", func() {
		It("renders one frame per Tick and none after Stop", func() {
			loop := render.New(surface, observer, backend, quietOptions(manual, 0))
			frameTime := metrics.NewFrameTime()
			loop.AddMetric(frameTime)
			Expect(loop.Start(context.Background())).To(Succeed())

			ok, err := loop.Tick(manual.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			observer.Observe(20, 10)
			for i := 0; i < 3; i++ {
				manual.Advance(interval)
				ok, err = loop.Tick(manual.Now())
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
			}
			Expect(loop.Frames()).To(BeEquivalentTo(3))
			Expect(surface.Presents()).To(Equal(3))
			Expect(frameTime.Value()).To(BeNumerically(">", 0))

			loop.Stop()
			ticks := loop.Ticks()
			ok, err = loop.Tick(manual.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(loop.Ticks()).To(Equal(ticks))
		})

		It("is deterministic for the same instant", func() {
			observer.Observe(24, 12)
			first := render.NewImageSurface()
			second := render.NewImageSurface()
			at := time.UnixMilli(1_700_000_000_000)

			for _, s := range []*render.ImageSurface{first, second} {
				c := clock.NewManual(time.UnixMilli(1_699_999_990_000))
				loop := render.New(s, observer, backend, quietOptions(c, 0))
				Expect(loop.Start(context.Background())).To(Succeed())
				c.Advance(at.Sub(c.Now()))
				Expect(loop.Tick(c.Now())).To(BeTrue())
				loop.Stop()
			}
			Expect(first.Image().Pix).To(Equal(second.Image().Pix))
		})

		It("skips a tick that overlaps one in progress", func() {
			bb := newBlockingBackend()
			loop := render.New(surface, observer, bb, quietOptions(manual, 0))
			Expect(loop.Start(context.Background())).To(Succeed())
			defer loop.Stop()
			observer.Observe(8, 8)

			first := make(chan bool, 1)
			go func() {
				defer GinkgoRecover()
				ok, err := loop.Tick(manual.Now())
				Expect(err).NotTo(HaveOccurred())
				first <- ok
			}()
			Eventually(bb.entered).Should(Receive())

			ok, err := loop.Tick(manual.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(loop.Ticks()).To(BeEquivalentTo(1))

			close(bb.release)
			Eventually(first).Should(Receive(BeTrue()))
			Expect(loop.Ticks()).To(BeEquivalentTo(1))
			Expect(loop.Frames()).To(BeEquivalentTo(1))
		})

		It("falls back to the default palette and epoch scale for zero options", func() {
			at := time.UnixMilli(1_700_000_000_000)
			c := clock.NewManual(at)
			loop := render.New(surface, observer, backend, render.Options{
				Clock:  c,
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			Expect(loop.Start(context.Background())).To(Succeed())
			defer loop.Stop()

			observer.Observe(8, 8)
			Expect(loop.Tick(c.Now())).To(BeTrue())

			res := viewport.Resolution{Width: 8, Height: 8}
			want := shader.NewProgram().Shade(4, 4, shader.Uniforms{
				Resolution: res,
				Time:       clock.DefaultEpochScale * clock.EpochOffset(at, clock.DefaultEpochPeriod),
				Palette:    shader.DefaultPaletteConstant,
			})
			Expect(surface.Image().RGBAAt(4, 4)).To(Equal(want))
		})

		It("pins pattern time to the phase with NoEpochDrift", func() {
			at := time.UnixMilli(1_700_000_000_000)
			c := clock.NewManual(at)
			opts := quietOptions(c, 0)
			opts.NoEpochDrift = true
			loop := render.New(surface, observer, backend, opts)
			Expect(loop.Start(context.Background())).To(Succeed())
			defer loop.Stop()

			observer.Observe(8, 8)
			Expect(loop.Tick(c.Now())).To(BeTrue())

			want := shader.NewProgram().Shade(4, 4, shader.Uniforms{
				Resolution: viewport.Resolution{Width: 8, Height: 8},
				Palette:    shader.DefaultPaletteConstant,
			})
			Expect(surface.Image().RGBAAt(4, 4)).To(Equal(want))
		})

		It("wraps backend failures in a FrameError", func() {
			boom := errors.New("boom")
			fb := &fakeBackend{available: true, err: boom}
			loop := render.New(surface, observer, fb, quietOptions(manual, 0))
			Expect(loop.Start(context.Background())).To(Succeed())
			defer loop.Stop()

			observer.Observe(8, 8)
			ok, err := loop.Tick(manual.Now())
			Expect(ok).To(BeFalse())
			Expect(err).To(MatchError(boom))

			var fe *render.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Tick).To(BeEquivalentTo(1))
			Expect(loop.Err()).To(Equal(err))
		})
	})

	It("fails explicitly without a usable rendering context", func() {
		loop := render.New(surface, observer, &fakeBackend{}, quietOptions(manual, interval))
		err := loop.Start(context.Background())
		Expect(errors.Is(err, render.ErrUnsupportedContext)).To(BeTrue())
		Expect(loop.Running()).To(BeFalse())
	})

	It("fails without a surface", func() {
		loop := render.New(nil, observer, backend, quietOptions(manual, interval))
		Expect(loop.Start(context.Background())).To(MatchError(render.ErrNoSurface))
	})
})
