// Package render drives an animation session: it reads the viewport and the
// time source on every tick, shades the capped render grid through a
// compute backend and presents a nearest-neighbor upscale to the surface.
//
//   - [Loop]: one mounted session (Start, Tick, Stop)
//   - [Scheduler]: cancellable repeating task behind self-driven sessions
//   - [Surface]: the drawing surface a host mounts the loop into
//   - [NearestCopy]: the pixel-replicating copy stage
//
// # Example
//
//	obs := viewport.NewObserver(viewport.DefaultCap)
//	obs.Observe(800, 400)
//	loop := render.New(surface, obs, compute.NewCPUBackend(0), render.DefaultOptions())
//	if err := loop.Start(ctx); err != nil {
//	    return err
//	}
//	defer loop.Stop()
//
// # Thread Safety
//
// Observe on the viewport may be called at any time. A tick reads the
// resolution once at its start, so a resize lands on the next frame. Ticks
// never overlap, and no tick runs after Stop returns.
package render
