// Package raster lays out normalized frames as grayscale or RGB rasters
// that an image encoder can consume directly.
package raster

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
)

// Build converts a normalized frame into a raster.
//
//   - (rows, cols) and (rows, cols, 1) become Grayscale
//   - (rows, cols, 3) becomes RGB
//   - (rows, cols, n>3) is averaged over channels into Grayscale
//
// Any other channel count is an UnsupportedFrameShapeError.
func Build(f *models.Frame, log logger.Logger) (*models.Raster, error) {
	if log == nil {
		log = logger.Nop()
	}

	r := &models.Raster{
		Width:      f.Cols,
		Height:     f.Rows,
		FrameIndex: f.Index,
	}

	switch {
	case f.Channels == 0 || f.Channels == 1:
		r.Mode = models.Grayscale
		r.Pix = toBytes(f.Data)
		log.Debug("created grayscale raster", nil)

	case f.Channels == 3:
		r.Mode = models.RGB
		r.Pix = toBytes(f.Data)
		log.Debug("created RGB raster", nil)

	case f.Channels > 3:
		r.Mode = models.Grayscale
		r.Pix = collapse(f)
		log.Debug("created grayscale raster by averaging channels", map[string]interface{}{
			"channels": f.Channels,
		})

	default:
		return nil, &models.UnsupportedFrameShapeError{Shape: f.Shape()}
	}

	if r.Width < 1 || r.Height < 1 {
		return nil, &models.EmptyRasterError{Width: r.Width, Height: r.Height}
	}
	if len(r.Pix) != r.Stride()*r.Height {
		return nil, &models.UnsupportedFrameShapeError{Shape: f.Shape()}
	}
	return r, nil
}

// toBytes clamps and truncates each value into a byte
func toBytes(data []float64) []uint8 {
	out := make([]uint8, len(data))
	for i, v := range data {
		out[i] = clampByte(v)
	}
	return out
}

// collapse averages the channel axis of a (rows, cols, n) frame
func collapse(f *models.Frame) []uint8 {
	n := f.Channels
	out := make([]uint8, f.Rows*f.Cols)
	for p := range out {
		out[p] = clampByte(stat.Mean(f.Data[p*n:(p+1)*n], nil))
	}
	return out
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
