package models

import (
	"fmt"
)

// DType is the element type of a pixel buffer as reported by the decoder
type DType int

const (
	Uint8 DType = iota
	Uint16
	Int16
	Float64
)

// String returns the numpy-style name of the element type
func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// RawBuffer represents the decoded pixel data of one source file
type RawBuffer struct {
	// Shape lists the dimensions in storage order, e.g. (frames, rows, cols, channels)
	Shape []int

	// DType is the element type the values were stored with
	DType DType

	// Data holds the values in row-major order. Every supported element
	// type fits a float64 exactly, so one representation serves all of them.
	Data []float64
}

// Rank returns the number of dimensions of the buffer
func (b *RawBuffer) Rank() int {
	return len(b.Shape)
}

// Frame represents a single image plane extracted from a RawBuffer
type Frame struct {
	// Rows and Cols are the spatial dimensions of the frame
	Rows int
	Cols int

	// Channels is the size of the trailing channel dimension.
	// Zero means the frame is strictly two dimensional.
	Channels int

	// DType is the element type the values currently represent
	DType DType

	// Data is the row-major pixel data, Rows*Cols*max(Channels,1) long
	Data []float64

	// Index is the position of this frame in the source buffer
	Index int
}

// NewFrame allocates a zeroed frame with the given geometry
func NewFrame(rows, cols, channels int, dtype DType) *Frame {
	n := rows * cols
	if channels > 0 {
		n *= channels
	}
	return &Frame{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		DType:    dtype,
		Data:     make([]float64, n),
	}
}

// Shape returns the frame dimensions the way a numeric array would report them
func (f *Frame) Shape() []int {
	if f.Channels == 0 {
		return []int{f.Rows, f.Cols}
	}
	return []int{f.Rows, f.Cols, f.Channels}
}

// Clone returns a deep copy of the frame with a new element type
func (f *Frame) Clone(dtype DType) *Frame {
	out := &Frame{
		Rows:     f.Rows,
		Cols:     f.Cols,
		Channels: f.Channels,
		DType:    dtype,
		Data:     make([]float64, len(f.Data)),
		Index:    f.Index,
	}
	copy(out.Data, f.Data)
	return out
}

// ChannelMode is the pixel layout of a finished raster
type ChannelMode int

const (
	Grayscale ChannelMode = iota
	RGB
)

func (m ChannelMode) String() string {
	if m == RGB {
		return "RGB"
	}
	return "L"
}

// Raster represents a normalized 8-bit image ready for encoding
type Raster struct {
	// Pix holds the samples row by row; RGB rasters interleave three samples per pixel
	Pix []uint8

	// Width and Height are the raster dimensions in pixels
	Width  int
	Height int

	// Mode is the resolved channel layout
	Mode ChannelMode

	// FrameIndex is the position of the source frame in its buffer
	FrameIndex int
}

// Stride returns the number of bytes in one raster row
func (r *Raster) Stride() int {
	if r.Mode == RGB {
		return r.Width * 3
	}
	return r.Width
}
