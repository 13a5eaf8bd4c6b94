package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"dcmtojpeg/internal/models"
)

func filled(rows, cols, channels int, fn func(i int) float64) *models.Frame {
	f := models.NewFrame(rows, cols, channels, models.Uint8)
	for i := range f.Data {
		f.Data[i] = fn(i)
	}
	return f
}

// TestBuildModes verifies the channel layout chosen for each frame shape
func TestBuildModes(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		mode     models.ChannelMode
		pixLen   int
	}{
		{"2D", 0, models.Grayscale, 12},
		{"singleton channel", 1, models.Grayscale, 12},
		{"RGB", 3, models.RGB, 36},
		{"four channels", 4, models.Grayscale, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Build(filled(3, 4, tt.channels, func(i int) float64 { return float64(i % 256) }), nil)
			if err != nil {
				t.Fatalf("Build returned error: %v", err)
			}
			if r.Mode != tt.mode {
				t.Errorf("Expected mode %v, got %v", tt.mode, r.Mode)
			}
			if r.Width != 4 || r.Height != 3 {
				t.Errorf("Expected 4x3 raster, got %dx%d", r.Width, r.Height)
			}
			if len(r.Pix) != tt.pixLen {
				t.Errorf("Expected %d samples, got %d", tt.pixLen, len(r.Pix))
			}
		})
	}
}

// TestBuildCollapsesByMean verifies the averaging fallback truncates like a uint8 cast
func TestBuildCollapsesByMean(t *testing.T) {
	f := models.NewFrame(1, 2, 4, models.Uint8)
	copy(f.Data, []float64{10, 20, 30, 41, 255, 255, 255, 254})

	r, err := Build(f, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if r.Pix[0] != 25 || r.Pix[1] != 254 {
		t.Errorf("Expected [25 254], got %v", r.Pix)
	}
}

func TestBuildRejectsTwoChannels(t *testing.T) {
	_, err := Build(models.NewFrame(2, 2, 2, models.Uint8), nil)

	var shapeErr *models.UnsupportedFrameShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("Expected UnsupportedFrameShapeError, got %v", err)
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(models.NewFrame(0, 5, 0, models.Uint8), nil)

	var emptyErr *models.EmptyRasterError
	if !errors.As(err, &emptyErr) {
		t.Errorf("Expected EmptyRasterError, got %v", err)
	}
}

// TestToImage verifies pixel placement for both modes
func TestToImage(t *testing.T) {
	gray, err := Build(filled(2, 3, 0, func(i int) float64 { return float64(i * 10) }), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	img := ToImage(gray)
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	if got := img.(*image.Gray).GrayAt(2, 1).Y; got != 50 {
		t.Errorf("Expected gray 50 at (2,1), got %d", got)
	}

	rgb, err := Build(filled(1, 2, 3, func(i int) float64 { return float64(i + 1) }), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	want := color.RGBA{R: 4, G: 5, B: 6, A: 255}
	if got := ToImage(rgb).(*image.RGBA).RGBAAt(1, 0); got != want {
		t.Errorf("Expected %v at (1,0), got %v", want, got)
	}
}
