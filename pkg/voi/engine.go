// Package voi applies value-of-interest transforms to a single frame:
// a lookup table when one is available, manual center/width windowing
// otherwise, followed by MONOCHROME1 polarity inversion.
package voi

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/metadata"
)

// Engine runs the windowing stage. The zero value uses NoLUT and discards logs.
type Engine struct {
	LUT    LUT
	Logger logger.Logger
}

// NewEngine creates an engine with the given lookup capability
func NewEngine(lut LUT, log logger.Logger) *Engine {
	return &Engine{LUT: lut, Logger: log}
}

// Apply windows and, for MONOCHROME1, inverts a frame. The input frame is
// left untouched; the result always owns its data.
func (e *Engine) Apply(f *models.Frame, md *metadata.ImageMetadata) (*models.Frame, error) {
	log := e.Logger
	if log == nil {
		log = logger.Nop()
	}
	if len(f.Data) == 0 {
		return nil, &models.TransformError{Stage: "windowing", Err: errors.New("frame has no pixels")}
	}

	out, applied := e.applyLUT(f, md, log)
	if !applied {
		if center, width, ok := md.Window(); ok {
			out = Window(f, center, width)
			log.Debug("applied manual windowing", map[string]interface{}{
				"center": center,
				"width":  width,
			})
		} else {
			out = f.Clone(f.DType)
		}
	}

	if md.Photometric() == metadata.Monochrome1 {
		out = Invert(out)
		log.Debug("inverted pixel values for MONOCHROME1", nil)
	}
	return out, nil
}

func (e *Engine) applyLUT(f *models.Frame, md *metadata.ImageMetadata, log logger.Logger) (*models.Frame, bool) {
	lut := e.LUT
	if lut == nil {
		lut = NoLUT{}
	}
	out, err := lut.Apply(f, md)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			log.Debug("could not apply VOI LUT, falling back to manual windowing", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	log.Debug("applied VOI LUT", nil)
	return out, true
}

// Window clips every value to [center - w, center + w] where w is the half
// width rounded down.
func Window(f *models.Frame, center, width float64) *models.Frame {
	half := math.Floor(width / 2)
	lo, hi := center-half, center+half

	dtype := f.DType
	if !integral(lo) || !integral(hi) || !fits(dtype, lo, hi) {
		dtype = models.Float64
	}

	out := f.Clone(dtype)
	for i, v := range out.Data {
		out.Data[i] = math.Min(math.Max(v, lo), hi)
	}
	return out
}

// Invert maps each value v to max(frame) - v
func Invert(f *models.Frame) *models.Frame {
	max := floats.Max(f.Data)
	min := floats.Min(f.Data)

	dtype := f.DType
	if !fits(dtype, 0, max-min) {
		dtype = models.Float64
	}

	out := f.Clone(dtype)
	for i, v := range out.Data {
		out.Data[i] = max - v
	}
	return out
}

func integral(v float64) bool {
	return v == math.Trunc(v)
}

// fits reports whether the closed range [lo, hi] is representable by dtype
func fits(dtype models.DType, lo, hi float64) bool {
	switch dtype {
	case models.Uint8:
		return lo >= 0 && hi <= math.MaxUint8
	case models.Uint16:
		return lo >= 0 && hi <= math.MaxUint16
	case models.Int16:
		return lo >= math.MinInt16 && hi <= math.MaxInt16
	default:
		return true
	}
}
