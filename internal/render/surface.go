package render

import (
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Surface receives composited frames at display size. The frame buffer is
// reused by the loop and is only valid for the duration of Present.
type Surface interface {
	Present(frame *image.RGBA) error
}

// NearestCopy scales src onto all of dst replicating pixels, never blending.
func NearestCopy(dst, src *image.RGBA) {
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// ImageSurface keeps a copy of the last presented frame in memory.
type ImageSurface struct {
	mu       sync.Mutex
	img      *image.RGBA
	presents int
}

func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

func (s *ImageSurface) Present(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.img == nil || s.img.Bounds() != frame.Bounds() {
		s.img = image.NewRGBA(frame.Bounds())
	}
	copy(s.img.Pix, frame.Pix)
	s.presents++
	return nil
}

// Image returns a copy of the last frame, or nil before the first one.
func (s *ImageSurface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

func (s *ImageSurface) Presents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}
