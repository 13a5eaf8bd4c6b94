package raster

import (
	"image"

	"dcmtojpeg/internal/models"
)

// ToImage wraps a raster as an image.Image without re-quantizing it.
// Grayscale rasters become *image.Gray, RGB rasters *image.RGBA.
func ToImage(r *models.Raster) image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)

	if r.Mode == models.Grayscale {
		img := image.NewGray(rect)
		for y := 0; y < r.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+r.Width], r.Pix[y*r.Width:(y+1)*r.Width])
		}
		return img
	}

	img := image.NewRGBA(rect)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			src := (y*r.Width + x) * 3
			dst := y*img.Stride + x*4
			img.Pix[dst] = r.Pix[src]
			img.Pix[dst+1] = r.Pix[src+1]
			img.Pix[dst+2] = r.Pix[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}
