// Package pipeline is the entry point of the pixel normalization core.
//
// It turns a decoded buffer and its metadata into 8-bit rasters:
//
//	buffer -> frames.Segment -> voi.Engine -> intensity.Normalize -> raster.Build
//
// The core performs no I/O and keeps no state between calls, so a single
// Normalizer may be shared by any number of goroutines.
package pipeline

import (
	"errors"
	"fmt"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/frames"
	"dcmtojpeg/pkg/intensity"
	"dcmtojpeg/pkg/metadata"
	"dcmtojpeg/pkg/raster"
	"dcmtojpeg/pkg/voi"
)

// FramePolicy decides how many rasters a multi-frame buffer yields
type FramePolicy int

const (
	// FirstFrame keeps only the first frame that survives every stage
	FirstFrame FramePolicy = iota
	// AllFrames keeps every surviving frame in storage order
	AllFrames
)

// ParseFramePolicy maps "first" / "all" onto a policy
func ParseFramePolicy(s string) (FramePolicy, bool) {
	switch s {
	case "", "first":
		return FirstFrame, true
	case "all":
		return AllFrames, true
	default:
		return FirstFrame, false
	}
}

func (p FramePolicy) String() string {
	if p == AllFrames {
		return "all"
	}
	return "first"
}

// Normalizer holds the injected collaborators of the core
type Normalizer struct {
	// LUT is the VOI lookup capability; nil behaves like voi.NoLUT
	LUT voi.LUT

	// Policy selects first-frame or all-frames output
	Policy FramePolicy

	// Logger receives per-stage diagnostics; nil discards them
	Logger logger.Logger
}

// Normalize runs the core with the default collaborators: the metadata's
// VOI LUT sequence when present and first-frame output.
func Normalize(buf *models.RawBuffer, md *metadata.ImageMetadata) ([]*models.Raster, error) {
	n := &Normalizer{LUT: voi.SequenceLUT{}}
	return n.Normalize(buf, md)
}

// Normalize segments buf and pushes every frame through windowing,
// normalization and raster layout. Frames that fail a stage are logged and
// skipped; an error is returned only when the buffer cannot be segmented or
// no frame survives.
func (n *Normalizer) Normalize(buf *models.RawBuffer, md *metadata.ImageMetadata) ([]*models.Raster, error) {
	log := n.Logger
	if log == nil {
		log = logger.Nop()
	}

	segs, err := frames.Segment(buf, log)
	if err != nil {
		return nil, err
	}
	if declared, ok := md.NumberOfFrames(); ok && declared != len(segs) && len(segs) > 1 {
		log.Debug("segmented frame count differs from NumberOfFrames", map[string]interface{}{
			"declared":  declared,
			"segmented": len(segs),
		})
	}

	engine := voi.NewEngine(n.LUT, log)

	var (
		out  []*models.Raster
		last error
	)
	for _, f := range segs {
		r, err := n.process(engine, f, md, log)
		if err != nil {
			log.Error("failed to normalize frame", err, map[string]interface{}{
				"frame":  f.Index + 1,
				"frames": len(segs),
			})
			last = err
			continue
		}
		log.Debug("successfully normalized frame", map[string]interface{}{
			"frame":  f.Index + 1,
			"frames": len(segs),
		})
		out = append(out, r)
		if n.Policy == FirstFrame {
			break
		}
	}

	if len(out) == 0 {
		return nil, &models.NoUsableFramesError{Frames: len(segs), Last: last}
	}
	if n.Policy == FirstFrame && len(segs) > 1 {
		log.Debug("multi-frame buffer, kept first usable frame only", map[string]interface{}{
			"frames": len(segs),
			"kept":   out[0].FrameIndex + 1,
		})
	}
	return out, nil
}

func (n *Normalizer) process(engine *voi.Engine, f *models.Frame, md *metadata.ImageMetadata, log logger.Logger) (r *models.Raster, err error) {
	// a numeric stage must not take down sibling frames
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, &models.TransformError{Stage: "frame", Err: panicError(p)}
		}
	}()

	windowed, err := engine.Apply(f, md)
	if err != nil {
		return nil, asTransform("windowing", err)
	}
	normalized, err := intensity.Normalize(windowed, log)
	if err != nil {
		return nil, asTransform("normalize", err)
	}
	return raster.Build(normalized, log)
}

// asTransform leaves typed errors alone and wraps everything else
func asTransform(stage string, err error) error {
	var te *models.TransformError
	if errors.As(err, &te) {
		return err
	}
	return &models.TransformError{Stage: stage, Err: err}
}

func panicError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}
