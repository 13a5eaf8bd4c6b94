// Package batch converts DICOM files to JPEG, one file per task, on a bounded
// pool of workers. Decoding and encoding are delegated to the Decoder and
// Encoder collaborators; pixel normalization to the pipeline package.
package batch

//go:generate mockgen -source=converter.go -destination=mock_deps_test.go -package=batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
	"dcmtojpeg/internal/observability"
	"dcmtojpeg/pkg/dicomio"
	"dcmtojpeg/pkg/metadata"
	"dcmtojpeg/pkg/pipeline"
)

// Decoder turns a file into pixel data and metadata
type Decoder interface {
	Decode(path string) (*models.RawBuffer, *metadata.ImageMetadata, error)
	DecodeForced(path string) (*models.RawBuffer, *metadata.ImageMetadata, error)
	DecodeHeaders(path string) (*metadata.ImageMetadata, error)
}

// Encoder writes a raster to disk
type Encoder interface {
	EncodeFile(path string, r *models.Raster) error
}

// smallImage is the edge length below which a converted image is reported
// as suspiciously small
const smallImage = 10

// Params holds the conversion parameters
type Params struct {
	// NumCores bounds the number of files converted concurrently
	NumCores int

	// OutputFolderName is created under the input directory by ConvertDirectory
	OutputFolderName string

	// Progress receives the progress line; nil disables it
	Progress io.Writer
}

// Converter handles file and directory conversion
type Converter struct {
	params     *Params
	decoder    Decoder
	encoder    Encoder
	normalizer pipeline.Normalizer
	log        logger.Logger
	metrics    *observability.Metrics
}

// NewConverter creates a converter. normalizer supplies the LUT capability
// and frame policy; its Logger is replaced per file. metrics may be nil.
func NewConverter(params *Params, dec Decoder, enc Encoder, normalizer pipeline.Normalizer, log logger.Logger, metrics *observability.Metrics) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Converter{
		params:     params,
		decoder:    dec,
		encoder:    enc,
		normalizer: normalizer,
		log:        log,
		metrics:    metrics,
	}
}

// ConvertFile converts one DICOM file into JPEG(s) inside outputDir and
// returns the written paths.
func (c *Converter) ConvertFile(path, outputDir string) ([]string, error) {
	log := c.log.With(map[string]interface{}{"file": path})

	start := time.Now()
	c.metrics.FilesInFlight.Inc()
	defer c.metrics.FilesInFlight.Dec()

	outputs, err := c.convert(path, outputDir, log)
	c.metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FilesTotal.WithLabelValues("failed").Inc()
		var noFrames *models.NoUsableFramesError
		if errors.As(err, &noFrames) {
			c.metrics.NoUsableFramesTotal.Inc()
		}
		log.Error("error converting file", err, nil)
		c.logDiagnostics(path, log)
		return nil, err
	}
	c.metrics.FilesTotal.WithLabelValues("converted").Inc()
	return outputs, nil
}

func (c *Converter) convert(path, outputDir string, log logger.Logger) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	buf, md, err := c.decode(path, log)
	if err != nil {
		return nil, err
	}
	logHeader(md, log)

	normalizer := c.normalizer
	normalizer.Logger = log
	rasters, err := normalizer.Normalize(buf, md)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputs := make([]string, 0, len(rasters))
	for _, r := range rasters {
		name := base + ".jpg"
		if len(rasters) > 1 {
			name = fmt.Sprintf("%s_frame_%03d.jpg", base, r.FrameIndex+1)
		}
		out := filepath.Join(outputDir, name)

		if r.Width < smallImage || r.Height < smallImage {
			log.Warning("image is very small", map[string]interface{}{
				"width":  r.Width,
				"height": r.Height,
			})
		}
		if err := c.encoder.EncodeFile(out, r); err != nil {
			return nil, fmt.Errorf("failed to save JPEG: %w", err)
		}
		c.metrics.RastersTotal.WithLabelValues(r.Mode.String()).Inc()
		outputs = append(outputs, out)
		log.Info("converted to JPEG", map[string]interface{}{
			"output": out,
			"width":  r.Width,
			"height": r.Height,
		})
	}
	return outputs, nil
}

// decode runs the two-step decoder protocol: a plain decode, then a forced
// decode only when the plain one reported encapsulated pixel data.
func (c *Converter) decode(path string, log logger.Logger) (*models.RawBuffer, *metadata.ImageMetadata, error) {
	buf, md, err := c.decoder.Decode(path)
	if err == nil {
		return buf, md, nil
	}
	if !errors.Is(err, dicomio.ErrEncapsulated) {
		return nil, nil, fmt.Errorf("could not extract pixel data: %w", err)
	}

	log.Debug("pixel data is encapsulated, trying forced decode", nil)
	c.metrics.ForcedDecodesTotal.Inc()
	buf, md, err = c.decoder.DecodeForced(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not extract pixel data after forced decode: %w", err)
	}
	return buf, md, nil
}

func logHeader(md *metadata.ImageMetadata, log logger.Logger) {
	fields := map[string]interface{}{}
	for _, a := range []metadata.Attr{
		metadata.SOPClassUID,
		metadata.TransferSyntaxUID,
		metadata.PhotometricInterpretation,
		metadata.BitsAllocated,
		metadata.BitsStored,
		metadata.PixelRepresentation,
		metadata.NumberOfFrames,
		metadata.Rows,
		metadata.Columns,
	} {
		if v, ok := md.String(a); ok {
			fields[string(a)] = v
		}
	}
	log.Debug("read DICOM header", fields)
}

// logDiagnostics re-reads the header of a failed file and logs what is
// known to cause failures
func (c *Converter) logDiagnostics(path string, log logger.Logger) {
	md, err := c.decoder.DecodeHeaders(path)
	if err != nil {
		log.Debug("could not gather diagnostic info", map[string]interface{}{"error": err.Error()})
		return
	}
	modality, _ := md.String(metadata.Modality)
	manufacturer, _ := md.String(metadata.Manufacturer)
	ts, _ := md.String(metadata.TransferSyntaxUID)
	log.Debug("DICOM file can be read (header only)", map[string]interface{}{
		"modality":        modality,
		"manufacturer":    manufacturer,
		"transfer_syntax": ts,
	})

	switch comp := dicomio.ClassifyTransferSyntax(ts); comp {
	case dicomio.JPEGFamily, dicomio.RLE:
		if !dicomio.ForcedDecodable(ts) {
			log.Warning(comp.String()+" DICOM detected - may need additional codec support", nil)
		}
	}
}

// ConvertDirectory converts every DICOM file found directly inside inputDir
// into <inputDir>/<OutputFolderName>. Per-file failures are logged and do not
// stop the batch. Outputs are returned in discovery order. Cancelling ctx
// stops scheduling new files; files already started run to completion.
func (c *Converter) ConvertDirectory(ctx context.Context, inputDir string) ([]string, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory not found: %s", inputDir)
	}

	runLog := c.log.With(map[string]interface{}{"run_id": uuid.NewString()})
	outputDir := filepath.Join(inputDir, c.params.OutputFolderName)

	files, err := Discover(inputDir, c.params.OutputFolderName, c.decoder)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		runLog.Warning("no DICOM files found", map[string]interface{}{"dir": inputDir})
		return nil, nil
	}
	runLog.Info("found DICOM files", map[string]interface{}{
		"count":      len(files),
		"output_dir": outputDir,
	})

	conv := *c
	conv.log = runLog
	results, err := conv.convertAll(ctx, files, outputDir)

	var outputs []string
	for _, r := range results {
		outputs = append(outputs, r...)
	}
	runLog.Info("successfully converted files", map[string]interface{}{"count": len(outputs)})
	return outputs, err
}

// convertAll fans files out to at most NumCores workers
func (c *Converter) convertAll(ctx context.Context, files []string, outputDir string) ([][]string, error) {
	results := make([][]string, len(files))

	workers := c.params.NumCores
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	done := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// per-file errors are already logged and counted
				out, _ := c.ConvertFile(files[idx], outputDir)
				results[idx] = out
				done <- struct{}{}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for range done {
		completed++
		if c.params.Progress != nil {
			progress := float64(completed) / float64(len(files)) * 100
			fmt.Fprintf(c.params.Progress, "\rConverting DICOM files to JPEG: %.1f%% complete", progress)
		}
	}
	if c.params.Progress != nil {
		fmt.Fprintln(c.params.Progress)
	}

	return results, ctx.Err()
}
