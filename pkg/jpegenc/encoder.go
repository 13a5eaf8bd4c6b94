// Package jpegenc writes rasters as baseline JPEG files.
package jpegenc

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/raster"
)

// DefaultQuality matches the converter's command line default
const DefaultQuality = 95

// Encoder compresses rasters. MaxDimension, when non-zero, shrinks rasters
// whose width or height exceeds it while keeping the aspect ratio.
type Encoder struct {
	Quality      int
	MaxDimension uint
}

// NewEncoder validates the quality and returns an encoder
func NewEncoder(quality int, maxDimension uint) (*Encoder, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality %d out of range 1-100", quality)
	}
	return &Encoder{Quality: quality, MaxDimension: maxDimension}, nil
}

// Encode writes r to w
func (e *Encoder) Encode(w io.Writer, r *models.Raster) error {
	quality := e.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	img := e.prepare(r)
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// createFile opens the destination of EncodeFile
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// EncodeFile writes r to path, creating parent directories as needed. A
// partially written file is removed.
func (e *Encoder) EncodeFile(path string, r *models.Raster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	file, err := createFile(path)
	if err != nil {
		return err
	}
	if err := e.encodeTo(file, r); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = errors.Join(err, rmErr)
		}
		return err
	}
	return nil
}

// encodeTo writes r through a buffer and always closes w
func (e *Encoder) encodeTo(w io.WriteCloser, r *models.Raster) error {
	bw := bufio.NewWriter(w)
	if err := e.Encode(bw, r); err != nil {
		return errors.Join(fmt.Errorf("error encoding JPEG: %w", err), w.Close())
	}
	if err := bw.Flush(); err != nil {
		return errors.Join(fmt.Errorf("error writing JPEG: %w", err), w.Close())
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("error closing JPEG: %w", err)
	}
	return nil
}

func (e *Encoder) prepare(r *models.Raster) image.Image {
	img := raster.ToImage(r)
	if e.MaxDimension == 0 {
		return img
	}
	if uint(r.Width) <= e.MaxDimension && uint(r.Height) <= e.MaxDimension {
		return img
	}
	return resize.Thumbnail(e.MaxDimension, e.MaxDimension, img, resize.Lanczos3)
}
