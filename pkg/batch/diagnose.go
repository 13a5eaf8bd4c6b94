package batch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/floats"

	"dcmtojpeg/pkg/dicomio"
	"dcmtojpeg/pkg/metadata"
	"dcmtojpeg/pkg/pipeline"
	"dcmtojpeg/pkg/raster"
)

// Report describes whether a file can be converted and why not
type Report struct {
	Path string

	// Header
	Modality       string
	Manufacturer   string
	SOPClassUID    string
	TransferSyntax string
	Compression    dicomio.Compression
	Attributes     map[metadata.Attr]string

	// Pixel data
	Shape    []int
	DType    string
	MinValue float64
	MaxValue float64

	// Normalization result
	NormalizedMin uint8
	NormalizedMax uint8
	Width         int
	Height        int

	Warnings    []string
	Problem     string
	Convertible bool
}

func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Diagnose inspects a file without writing anything. The returned error is
// only set when the header cannot be read at all; every other issue is
// recorded in the report.
func (c *Converter) Diagnose(path string) (*Report, error) {
	rep := &Report{Path: path, Attributes: map[metadata.Attr]string{}}

	md, err := c.decoder.DecodeHeaders(path)
	if err != nil {
		return nil, err
	}
	rep.Modality, _ = md.String(metadata.Modality)
	rep.Manufacturer, _ = md.String(metadata.Manufacturer)
	rep.SOPClassUID, _ = md.String(metadata.SOPClassUID)
	rep.TransferSyntax, _ = md.String(metadata.TransferSyntaxUID)
	rep.Compression = dicomio.ClassifyTransferSyntax(rep.TransferSyntax)
	for _, a := range []metadata.Attr{
		metadata.Rows,
		metadata.Columns,
		metadata.BitsAllocated,
		metadata.BitsStored,
		metadata.PixelRepresentation,
		metadata.PhotometricInterpretation,
		metadata.NumberOfFrames,
	} {
		if v, ok := md.String(a); ok {
			rep.Attributes[a] = v
		}
	}
	if rep.Compression == dicomio.JPEGFamily || rep.Compression == dicomio.RLE {
		if !dicomio.ForcedDecodable(rep.TransferSyntax) {
			rep.warn("%s - may need additional codecs", rep.Compression)
		}
	}

	_, hasRows := md.Int(metadata.Rows)
	_, hasCols := md.Int(metadata.Columns)
	if !hasRows || !hasCols {
		rep.Problem = "no image dimensions found"
		return rep, nil
	}
	if n, ok := md.NumberOfFrames(); ok && n > 1 {
		rep.warn("multi-frame DICOM (%d frames), only the first frame is converted by default", n)
	}
	if center, width, ok := md.Window(); ok {
		rep.Attributes[metadata.WindowCenter] = fmt.Sprint(center)
		rep.Attributes[metadata.WindowWidth] = fmt.Sprint(width)
	}

	buf, full, err := c.decoder.Decode(path)
	if errors.Is(err, dicomio.ErrEncapsulated) {
		buf, full, err = c.decoder.DecodeForced(path)
	}
	if err != nil {
		rep.Problem = "cannot access pixel data: " + err.Error()
		return rep, nil
	}

	rep.Shape = buf.Shape
	rep.DType = buf.DType.String()
	if len(buf.Data) == 0 {
		rep.Problem = "empty pixel array"
		return rep, nil
	}
	rep.MinValue, rep.MaxValue = floats.Min(buf.Data), floats.Max(buf.Data)

	if len(buf.Shape) < 2 {
		rep.Problem = "invalid pixel array dimensions"
		return rep, nil
	}
	if buf.Shape[0] == 1 || buf.Shape[1] == 1 {
		rep.warn("very thin image, it may appear as a line")
	}
	if rep.MinValue == rep.MaxValue {
		rep.warn("all pixels have the same value")
	}

	normalizer := c.normalizer
	normalizer.Policy = pipeline.FirstFrame
	normalizer.Logger = nil
	rasters, err := normalizer.Normalize(buf, full)
	if err != nil {
		rep.Problem = "processing failed: " + err.Error()
		return rep, nil
	}

	r := rasters[0]
	rep.Width, rep.Height = r.Width, r.Height
	lo, hi := uint8(255), uint8(0)
	for _, p := range r.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	rep.NormalizedMin, rep.NormalizedMax = lo, hi
	if r.Width < smallImage || r.Height < smallImage {
		rep.warn("very small image size, it may appear as a line")
	}

	// the raster must also survive conversion to an image
	if b := raster.ToImage(r).Bounds(); b.Dx() != r.Width || b.Dy() != r.Height {
		rep.Problem = "image conversion produced wrong bounds"
		return rep, nil
	}

	rep.Convertible = true
	return rep, nil
}

// Write prints the report in a human readable form
func (r *Report) Write(w io.Writer) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "Diagnosing DICOM file: %s\n%s\n", r.Path, line)

	fmt.Fprintln(w, "Basic Information:")
	fmt.Fprintf(w, "   Modality: %s\n", orUnknown(r.Modality))
	fmt.Fprintf(w, "   Manufacturer: %s\n", orUnknown(r.Manufacturer))
	fmt.Fprintf(w, "   SOP Class: %s\n", orUnknown(r.SOPClassUID))
	fmt.Fprintf(w, "   Transfer Syntax: %s (%s)\n", orUnknown(r.TransferSyntax), r.Compression)

	fmt.Fprintln(w, "\nImage Properties:")
	for _, a := range []metadata.Attr{
		metadata.Columns,
		metadata.Rows,
		metadata.BitsAllocated,
		metadata.BitsStored,
		metadata.PixelRepresentation,
		metadata.PhotometricInterpretation,
		metadata.NumberOfFrames,
		metadata.WindowCenter,
		metadata.WindowWidth,
	} {
		fmt.Fprintf(w, "   %s: %s\n", a, orUnknown(r.Attributes[a]))
	}

	if r.Shape != nil {
		fmt.Fprintln(w, "\nPixel Data Analysis:")
		fmt.Fprintf(w, "   Shape: %v\n", r.Shape)
		fmt.Fprintf(w, "   Data type: %s\n", r.DType)
		fmt.Fprintf(w, "   Value range: %g to %g\n", r.MinValue, r.MaxValue)
	}
	if r.Convertible {
		fmt.Fprintf(w, "   Normalized range: %d to %d\n", r.NormalizedMin, r.NormalizedMax)
		fmt.Fprintf(w, "   Final image size: %dx%d\n", r.Width, r.Height)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "   WARNING: %s\n", warning)
	}
	if r.Problem != "" {
		fmt.Fprintf(w, "   ERROR: %s\n", r.Problem)
	}

	if r.Convertible {
		fmt.Fprintln(w, "\nDICOM file appears to be convertible")
	} else {
		fmt.Fprintln(w, "\nDICOM file has issues that may prevent conversion")
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
