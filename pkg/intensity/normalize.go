// Package intensity rescales windowed frames of any numeric range into
// 8-bit intensities.
package intensity

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
)

// Blank is the value every pixel of a constant-valued frame is mapped to
const Blank = 128

// Normalize maps f onto [0, 255] and returns a uint8 frame of the same shape.
//
// uint8 input is returned as a copy. Otherwise the frame is rescaled linearly
// from [min, max] in float64 so 16-bit sources do not band. A frame whose
// values are all equal becomes uniform mid-gray rather than black or white.
func Normalize(f *models.Frame, log logger.Logger) (*models.Frame, error) {
	if log == nil {
		log = logger.Nop()
	}
	if len(f.Data) == 0 {
		return nil, &models.TransformError{Stage: "normalize", Err: errors.New("frame has no pixels")}
	}
	if f.DType == models.Uint8 {
		return f.Clone(models.Uint8), nil
	}

	min, max := floats.Min(f.Data), floats.Max(f.Data)
	log.Debug("pixel range before normalization", map[string]interface{}{
		"min":   min,
		"max":   max,
		"dtype": f.DType.String(),
	})
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil, &models.TransformError{Stage: "normalize", Err: errors.New("frame contains non-finite values")}
	}
	if floats.HasNaN(f.Data) {
		return nil, &models.TransformError{Stage: "normalize", Err: errors.New("frame contains NaN")}
	}

	out := f.Clone(models.Uint8)
	if max == min {
		log.Warning("all pixels have the same value, creating blank image", map[string]interface{}{
			"value": min,
		})
		for i := range out.Data {
			out.Data[i] = Blank
		}
		return out, nil
	}

	// out = clip(round((v - min) / (max - min) * 255), 0, 255)
	floats.AddConst(-min, out.Data)
	span := max - min
	for i, v := range out.Data {
		out.Data[i] = math.Min(math.Max(math.Round(v/span*255), 0), 255)
	}
	return out, nil
}
