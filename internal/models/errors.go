package models

import (
	"fmt"
)

// ShapeError reports a buffer whose dimensions cannot be segmented
type ShapeError struct {
	Shape  []int
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unsupported pixel array shape %v: %s", e.Shape, e.Reason)
}

// NoUsableFramesError reports that every frame of a buffer failed downstream
type NoUsableFramesError struct {
	Frames int
	Last   error
}

func (e *NoUsableFramesError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("no frames could be successfully normalized (0 of %d)", e.Frames)
	}
	return fmt.Sprintf("no frames could be successfully normalized (0 of %d): %v", e.Frames, e.Last)
}

func (e *NoUsableFramesError) Unwrap() error {
	return e.Last
}

// UnsupportedFrameShapeError reports a frame the raster builder cannot lay out
type UnsupportedFrameShapeError struct {
	Shape []int
}

func (e *UnsupportedFrameShapeError) Error() string {
	return fmt.Sprintf("cannot convert frame with shape %v to a raster", e.Shape)
}

// EmptyRasterError reports a raster with zero width or height
type EmptyRasterError struct {
	Width  int
	Height int
}

func (e *EmptyRasterError) Error() string {
	return fmt.Sprintf("raster has zero width or height (%dx%d)", e.Width, e.Height)
}

// TransformError wraps a failure inside one of the numeric stages
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
