package render

import (
	"image"
	"image/color"
	"testing"
)

func TestNearestCopyReplicatesPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	colors := [2][2]color.RGBA{
		{{255, 0, 0, 255}, {0, 255, 0, 255}},
		{{0, 0, 255, 255}, {255, 255, 255, 255}},
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, colors[y][x])
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, 6, 4))
	NearestCopy(dst, src)

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			want := colors[y/2][x/3]
			if got := dst.RGBAAt(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestNearestCopySameSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 3, 3))
	NearestCopy(dst, src)
	for i := range src.Pix {
		if dst.Pix[i] != src.Pix[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, dst.Pix[i], src.Pix[i])
		}
	}
}

func TestImageSurface(t *testing.T) {
	s := NewImageSurface()
	if s.Image() != nil {
		t.Error("expected no image before first present")
	}

	frame := image.NewRGBA(image.Rect(0, 0, 4, 2))
	frame.SetRGBA(1, 1, color.RGBA{10, 20, 30, 255})
	if err := s.Present(frame); err != nil {
		t.Fatalf("present: %v", err)
	}

	// the loop reuses its buffer; the surface must keep its own copy
	frame.SetRGBA(1, 1, color.RGBA{})
	img := s.Image()
	if got := img.RGBAAt(1, 1); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("surface did not copy frame, got %v", got)
	}
	if s.Presents() != 1 {
		t.Errorf("expected 1 present, got %d", s.Presents())
	}
}
