// Package frames splits a decoded pixel buffer into individual image planes.
//
// The classification is a shape heuristic. Some shapes are genuinely
// ambiguous: a stack of three 3x3 grayscale frames has the same shape as a
// single 3x3 RGB image, and is classified as the latter. The tie-break order
// below is relied upon by callers and must not be reordered.
package frames

import (
	"fmt"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
)

// Segment classifies buf by rank and returns its frames in storage order.
// The returned frames own their data; buf is never modified.
func Segment(buf *models.RawBuffer, log logger.Logger) ([]*models.Frame, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := validate(buf); err != nil {
		return nil, err
	}

	shape := buf.Shape
	var out []*models.Frame

	switch len(shape) {
	case 2:
		out = []*models.Frame{whole(buf, shape[0], shape[1], 0)}
		log.Debug("detected single frame", fields(shape, 1))

	case 3:
		d0, d1, d2 := shape[0], shape[1], shape[2]
		switch {
		case d2 == 3:
			out = []*models.Frame{whole(buf, d0, d1, 3)}
			log.Debug("detected RGB color image", fields(shape, 1))
		case d0 < d1 && d0 < d2:
			out = splitLeading(buf, d0, d1, d2, 0)
			log.Debug("detected multi-frame buffer", fields(shape, len(out)))
		case d2 > 3:
			out = splitTrailing(buf, d0, d1, d2)
			log.Debug("detected multi-frame buffer with trailing frame axis", fields(shape, len(out)))
		default:
			out = []*models.Frame{whole(buf, d0, d1, d2)}
			log.Debug("treating 3D buffer as single frame", fields(shape, 1))
		}

	case 4:
		n, rows, cols, ch := shape[0], shape[1], shape[2], shape[3]
		switch ch {
		case 1:
			out = splitLeading(buf, n, rows, cols, 0)
		case 3:
			out = splitLeading(buf, n, rows, cols, 3)
		default:
			out = splitLeading(buf, 1, rows, cols, ch)
			log.Warning("unrecognized channel count, keeping first frame only", fields(shape, 1))
		}
		log.Debug("detected 4D buffer", fields(shape, len(out)))
	}

	return out, nil
}

func validate(buf *models.RawBuffer) error {
	if buf == nil {
		return &models.ShapeError{Reason: "nil buffer"}
	}
	rank := buf.Rank()
	if rank < 2 || rank > 4 {
		return &models.ShapeError{Shape: buf.Shape, Reason: fmt.Sprintf("rank %d not in {2,3,4}", rank)}
	}
	n := 1
	for _, d := range buf.Shape {
		if d <= 0 {
			return &models.ShapeError{Shape: buf.Shape, Reason: "zero-sized dimension"}
		}
		n *= d
	}
	if n != len(buf.Data) {
		return &models.ShapeError{
			Shape:  buf.Shape,
			Reason: fmt.Sprintf("shape holds %d elements but buffer has %d", n, len(buf.Data)),
		}
	}
	return nil
}

// whole copies the entire buffer into one frame
func whole(buf *models.RawBuffer, rows, cols, channels int) *models.Frame {
	f := models.NewFrame(rows, cols, channels, buf.DType)
	copy(f.Data, buf.Data)
	return f
}

// splitLeading copies the first count planes along the leading axis.
// channels == 0 covers both a plain (n, rows, cols) stack and a squeezed
// (n, rows, cols, 1) one, since their memory layout is identical.
func splitLeading(buf *models.RawBuffer, count, rows, cols, channels int) []*models.Frame {
	out := make([]*models.Frame, count)
	for i := 0; i < count; i++ {
		f := models.NewFrame(rows, cols, channels, buf.DType)
		size := len(f.Data)
		copy(f.Data, buf.Data[i*size:(i+1)*size])
		f.Index = i
		out[i] = f
	}
	return out
}

// splitTrailing gathers (rows, cols, n) into n frames of (rows, cols)
func splitTrailing(buf *models.RawBuffer, rows, cols, count int) []*models.Frame {
	out := make([]*models.Frame, count)
	for i := 0; i < count; i++ {
		f := models.NewFrame(rows, cols, 0, buf.DType)
		for p := 0; p < rows*cols; p++ {
			f.Data[p] = buf.Data[p*count+i]
		}
		f.Index = i
		out[i] = f
	}
	return out
}

func fields(shape []int, n int) map[string]interface{} {
	return map[string]interface{}{
		"shape":  fmt.Sprint(shape),
		"frames": n,
	}
}
