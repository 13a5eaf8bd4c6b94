package voi

import (
	"errors"
	"fmt"

	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/metadata"
)

// ErrUnsupported is returned by a LUT that cannot transform the given frame
var ErrUnsupported = errors.New("voi lut not supported")

// LUT is the optional value-of-interest lookup capability. Implementations
// return a new frame, or ErrUnsupported when they have nothing to apply.
type LUT interface {
	Apply(f *models.Frame, md *metadata.ImageMetadata) (*models.Frame, error)
}

// NoLUT is the fallback capability for environments without LUT support
type NoLUT struct{}

func (NoLUT) Apply(*models.Frame, *metadata.ImageMetadata) (*models.Frame, error) {
	return nil, ErrUnsupported
}

// SequenceLUT applies the first table of the VOI LUT sequence carried by the
// metadata. Stored values below the first mapped value take the first entry,
// values past the end of the table take the last.
type SequenceLUT struct{}

func (SequenceLUT) Apply(f *models.Frame, md *metadata.ImageMetadata) (*models.Frame, error) {
	luts := md.VOILUTs()
	if len(luts) == 0 {
		return nil, ErrUnsupported
	}
	lut := luts[0]
	if len(lut.Data) == 0 {
		return nil, fmt.Errorf("voi lut %q has no entries", lut.Explanation)
	}
	if f.Channels > 1 {
		return nil, fmt.Errorf("voi lut cannot be applied to %d-channel data", f.Channels)
	}

	dtype := models.Uint16
	if lut.BitsPerEntry > 0 && lut.BitsPerEntry <= 8 {
		dtype = models.Uint8
	}

	out := f.Clone(dtype)
	last := len(lut.Data) - 1
	for i, v := range f.Data {
		idx := int(v) - lut.FirstMapped
		switch {
		case idx < 0:
			idx = 0
		case idx > last:
			idx = last
		}
		entry := lut.Data[idx]
		if dtype == models.Uint8 && entry > 255 {
			entry = 255
		}
		out.Data[i] = float64(entry)
	}
	return out, nil
}
