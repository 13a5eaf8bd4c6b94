// Package dicomio adapts github.com/suyashkumar/dicom to the decoder contract
// of the conversion pipeline: a file path in, a RawBuffer and ImageMetadata out.
//
// Decoding is an explicit two-step protocol. Decode only reads native
// (uncompressed) pixel data and reports ErrEncapsulated otherwise; the caller
// may then choose to call DecodeForced, which also expands encapsulated
// frames: JPEG lossless and JPEG-LS fragments through their sample codecs,
// baseline JPEG and JPEG 2000 through the formats registered with the image
// package.
package dicomio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/metadata"
)

var (
	// ErrEncapsulated means the pixel data is compressed and needs DecodeForced
	ErrEncapsulated = errors.New("pixel data is encapsulated")

	// ErrNoPixelData means the file carries no PixelData element
	ErrNoPixelData = errors.New("no pixel data found")
)

// attrTags lists the attributes copied into ImageMetadata
var attrTags = []struct {
	attr metadata.Attr
	tag  tag.Tag
}{
	{metadata.PhotometricInterpretation, tag.PhotometricInterpretation},
	{metadata.WindowCenter, tag.WindowCenter},
	{metadata.WindowWidth, tag.WindowWidth},
	{metadata.BitsAllocated, tag.BitsAllocated},
	{metadata.BitsStored, tag.BitsStored},
	{metadata.PixelRepresentation, tag.PixelRepresentation},
	{metadata.NumberOfFrames, tag.NumberOfFrames},
	{metadata.Rows, tag.Rows},
	{metadata.Columns, tag.Columns},
	{metadata.SamplesPerPixel, tag.SamplesPerPixel},
	{metadata.RescaleSlope, tag.RescaleSlope},
	{metadata.RescaleIntercept, tag.RescaleIntercept},
	{metadata.TransferSyntaxUID, tag.TransferSyntaxUID},
	{metadata.SOPClassUID, tag.SOPClassUID},
	{metadata.Modality, tag.Modality},
	{metadata.Manufacturer, tag.Manufacturer},
}

// Decoder reads DICOM files from disk
type Decoder struct {
	Logger logger.Logger
}

// NewDecoder creates a decoder logging to log
func NewDecoder(log logger.Logger) *Decoder {
	if log == nil {
		log = logger.Nop()
	}
	return &Decoder{Logger: log}
}

// DecodeHeaders parses everything but the pixel data
func (d *Decoder) DecodeHeaders(path string) (*metadata.ImageMetadata, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("error reading DICOM header: %w", err)
	}
	return extractMetadata(&ds), nil
}

// Decode reads native pixel data. Encapsulated pixel data yields ErrEncapsulated.
func (d *Decoder) Decode(path string) (*models.RawBuffer, *metadata.ImageMetadata, error) {
	return d.decode(path, false)
}

// DecodeForced reads native pixel data and decodes encapsulated frames
func (d *Decoder) DecodeForced(path string) (*models.RawBuffer, *metadata.ImageMetadata, error) {
	return d.decode(path, true)
}

func (d *Decoder) decode(path string, force bool) (*models.RawBuffer, *metadata.ImageMetadata, error) {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading DICOM file: %w", err)
	}
	md := extractMetadata(&ds)

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, md, ErrNoPixelData
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, md, ErrNoPixelData
	}

	if info.IsEncapsulated {
		if !force {
			return nil, md, ErrEncapsulated
		}
		ts, _ := md.String(metadata.TransferSyntaxUID)
		images := make([]image.Image, 0, len(info.Frames))
		for i := range info.Frames {
			fr := info.Frames[i]
			img, err := decodeFragment(ts, fr.EncapsulatedData.Data)
			if err != nil {
				return nil, md, fmt.Errorf("decoding encapsulated frame %d: %w", i, err)
			}
			images = append(images, img)
		}
		buf, err := bufferFromImages(images)
		if err != nil {
			return nil, md, err
		}
		if buf.DType == models.Uint16 && dtypeFor(md) == models.Int16 {
			for i, v := range buf.Data {
				buf.Data[i] = signedValue(int(v), models.Int16)
			}
			buf.DType = models.Int16
		}
		log.Debug("decoded encapsulated pixel data", map[string]interface{}{
			"frames": len(images),
			"shape":  fmt.Sprint(buf.Shape),
		})
		return buf, md, nil
	}

	dtype := dtypeFor(md)
	planes := make([][][]int, 0, len(info.Frames))
	rows, cols := 0, 0
	for i := range info.Frames {
		fr := info.Frames[i]
		if i == 0 {
			rows, cols = fr.NativeData.Rows, fr.NativeData.Cols
		} else if fr.NativeData.Rows != rows || fr.NativeData.Cols != cols {
			return nil, md, fmt.Errorf("frame %d is %dx%d, expected %dx%d", i, fr.NativeData.Cols, fr.NativeData.Rows, cols, rows)
		}
		planes = append(planes, fr.NativeData.Data)
	}
	buf, err := bufferFromNative(planes, rows, cols, dtype)
	if err != nil {
		return nil, md, err
	}
	log.Debug("decoded native pixel data", map[string]interface{}{
		"shape": fmt.Sprint(buf.Shape),
		"dtype": buf.DType.String(),
	})
	return buf, md, nil
}

// dtypeFor derives the element type from BitsAllocated / PixelRepresentation
func dtypeFor(md *metadata.ImageMetadata) models.DType {
	bits, _ := md.Int(metadata.BitsAllocated)
	signed, _ := md.Int(metadata.PixelRepresentation)
	switch {
	case bits == 8:
		return models.Uint8
	case bits == 16 && signed == 1:
		return models.Int16
	case bits == 16:
		return models.Uint16
	default:
		return models.Float64
	}
}

// bufferFromNative stacks native frames into (frames, rows, cols[, samples]).
// A single frame drops the leading axis.
func bufferFromNative(planes [][][]int, rows, cols int, dtype models.DType) (*models.RawBuffer, error) {
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("native frame has zero size (%dx%d)", cols, rows)
	}
	samples := 1
	if len(planes[0]) > 0 {
		samples = len(planes[0][0])
	}
	if samples == 0 {
		return nil, errors.New("native frame has no samples per pixel")
	}

	pixels := rows * cols
	data := make([]float64, 0, len(planes)*pixels*samples)
	for i, plane := range planes {
		if len(plane) != pixels {
			return nil, fmt.Errorf("frame %d has %d pixels, expected %d", i, len(plane), pixels)
		}
		for _, px := range plane {
			if len(px) != samples {
				return nil, fmt.Errorf("frame %d mixes samples per pixel", i)
			}
			for _, v := range px {
				data = append(data, signedValue(v, dtype))
			}
		}
	}

	shape := []int{rows, cols}
	if len(planes) > 1 {
		shape = append([]int{len(planes)}, shape...)
	}
	if samples > 1 {
		shape = append(shape, samples)
	}
	return &models.RawBuffer{Shape: shape, DType: dtype, Data: data}, nil
}

// signedValue reinterprets 16-bit two's complement values read as unsigned
func signedValue(v int, dtype models.DType) float64 {
	if dtype == models.Int16 && v > math.MaxInt16 {
		return float64(v - (math.MaxUint16 + 1))
	}
	return float64(v)
}

// bufferFromImages converts decoded frames into a buffer. Gray and Gray16
// images keep a single channel, everything else becomes 8-bit RGB.
func bufferFromImages(images []image.Image) (*models.RawBuffer, error) {
	bounds := images[0].Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	dtype := models.Uint8
	samples := 3
	switch images[0].(type) {
	case *image.Gray:
		samples = 1
	case *image.Gray16:
		samples = 1
		dtype = models.Uint16
	}

	data := make([]float64, 0, len(images)*rows*cols*samples)
	for i, img := range images {
		b := img.Bounds()
		if b.Dx() != cols || b.Dy() != rows {
			return nil, fmt.Errorf("encapsulated frame %d is %dx%d, expected %dx%d", i, b.Dx(), b.Dy(), cols, rows)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				switch {
				case samples == 3:
					data = append(data, float64(r>>8), float64(g>>8), float64(bl>>8))
				case dtype == models.Uint16:
					data = append(data, float64(r))
				default:
					data = append(data, float64(r>>8))
				}
			}
		}
	}

	shape := []int{rows, cols}
	if len(images) > 1 {
		shape = append([]int{len(images)}, shape...)
	}
	if samples > 1 {
		shape = append(shape, samples)
	}
	return &models.RawBuffer{Shape: shape, DType: dtype, Data: data}, nil
}

func extractMetadata(ds *dicom.Dataset) *metadata.ImageMetadata {
	b := metadata.NewBuilder()
	for _, at := range attrTags {
		el, err := ds.FindElementByTag(at.tag)
		if err != nil || el.Value == nil {
			continue
		}
		if v, ok := toValue(el.Value.GetValue()); ok {
			b.Set(at.attr, v)
		}
	}
	var order binary.ByteOrder = binary.LittleEndian
	if el, err := ds.FindElementByTag(tag.TransferSyntaxUID); err == nil && el.Value != nil {
		if uid, ok := el.Value.GetValue().([]string); ok && len(uid) > 0 {
			order = byteOrder(uid[0])
		}
	}
	for _, lut := range voiLUTs(ds, order) {
		b.AddVOILUT(lut)
	}
	return b.Build()
}

func toValue(raw interface{}) (metadata.Value, bool) {
	switch v := raw.(type) {
	case []string:
		return metadata.Textual(v...), len(v) > 0
	case []int:
		nums := make([]float64, len(v))
		for i, n := range v {
			nums[i] = float64(n)
		}
		return metadata.Numeric(nums...), len(v) > 0
	case []float64:
		return metadata.Numeric(v...), len(v) > 0
	default:
		return metadata.Value{}, false
	}
}

// voiLUTs reads the items of the VOI LUT sequence. Items without a usable
// descriptor or data are skipped.
func voiLUTs(ds *dicom.Dataset, order binary.ByteOrder) []metadata.VOILUT {
	el, err := ds.FindElementByTag(tag.VOILUTSequence)
	if err != nil || el.Value == nil {
		return nil
	}
	items, ok := el.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}

	var out []metadata.VOILUT
	for _, item := range items {
		elements, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		var (
			desc []int
			data []uint16
			expl string
		)
		for _, e := range elements {
			switch e.Tag {
			case tag.LUTDescriptor:
				desc, _ = e.Value.GetValue().([]int)
			case tag.LUTData:
				data = lutData(e.Value.GetValue(), order)
			case tag.LUTExplanation:
				if s, ok := e.Value.GetValue().([]string); ok && len(s) > 0 {
					expl = s[0]
				}
			}
		}
		if len(desc) != 3 || len(data) == 0 {
			continue
		}
		out = append(out, metadata.VOILUT{
			FirstMapped:  desc[1],
			BitsPerEntry: desc[2],
			Data:         data,
			Explanation:  expl,
		})
	}
	return out
}

// lutData accepts LUT Data encoded as US values or as OW bytes in the
// dataset's byte order
func lutData(raw interface{}, order binary.ByteOrder) []uint16 {
	switch v := raw.(type) {
	case []int:
		out := make([]uint16, len(v))
		for i, n := range v {
			out[i] = uint16(n)
		}
		return out
	case []byte:
		out := make([]uint16, len(v)/2)
		for i := range out {
			out[i] = order.Uint16(v[2*i:])
		}
		return out
	default:
		return nil
	}
}
