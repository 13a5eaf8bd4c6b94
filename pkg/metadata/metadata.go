// Package metadata provides typed, optional-valued access to the photometric
// attributes a decoder extracts from a medical image file.
//
// Absence is a normal state: every accessor reports presence with a boolean
// instead of an error, and callers are expected to branch on it.
package metadata

import (
	"strconv"
	"strings"
)

// Attr names a metadata attribute using its DICOM keyword
type Attr string

const (
	PhotometricInterpretation Attr = "PhotometricInterpretation"
	WindowCenter              Attr = "WindowCenter"
	WindowWidth               Attr = "WindowWidth"
	BitsAllocated             Attr = "BitsAllocated"
	BitsStored                Attr = "BitsStored"
	PixelRepresentation       Attr = "PixelRepresentation"
	NumberOfFrames            Attr = "NumberOfFrames"
	Rows                      Attr = "Rows"
	Columns                   Attr = "Columns"
	SamplesPerPixel           Attr = "SamplesPerPixel"
	RescaleSlope              Attr = "RescaleSlope"
	RescaleIntercept          Attr = "RescaleIntercept"
	TransferSyntaxUID         Attr = "TransferSyntaxUID"
	SOPClassUID               Attr = "SOPClassUID"
	Modality                  Attr = "Modality"
	Manufacturer              Attr = "Manufacturer"
)

// Photometric is the display polarity / color model of the pixel data
type Photometric int

const (
	Other Photometric = iota
	Monochrome1
	Monochrome2
	RGB
)

func (p Photometric) String() string {
	switch p {
	case Monochrome1:
		return "MONOCHROME1"
	case Monochrome2:
		return "MONOCHROME2"
	case RGB:
		return "RGB"
	default:
		return "OTHER"
	}
}

// ParsePhotometric maps a DICOM code string onto the enum
func ParsePhotometric(s string) Photometric {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MONOCHROME1":
		return Monochrome1
	case "MONOCHROME2":
		return Monochrome2
	case "RGB":
		return RGB
	default:
		return Other
	}
}

// Value is a scalar or small list. Numeric attributes populate Numbers,
// textual ones populate Text; multi-valued attributes keep every element.
type Value struct {
	Numbers []float64
	Text    []string
}

// Numeric builds a numeric value
func Numeric(v ...float64) Value {
	return Value{Numbers: append([]float64(nil), v...)}
}

// Textual builds a textual value
func Textual(v ...string) Value {
	return Value{Text: append([]string(nil), v...)}
}

// VOILUT is one lookup table of a VOI LUT sequence
type VOILUT struct {
	// FirstMapped is the stored pixel value mapped to Data[0]
	FirstMapped int

	// BitsPerEntry is the bit depth of the table output (8 or 16)
	BitsPerEntry int

	// Data holds the table entries
	Data []uint16

	Explanation string
}

// ImageMetadata is an immutable sparse attribute record. It is safe to share
// between goroutines once built.
type ImageMetadata struct {
	attrs map[Attr]Value
	luts  []VOILUT
}

// Empty returns metadata without any attribute
func Empty() *ImageMetadata {
	return &ImageMetadata{attrs: map[Attr]Value{}}
}

// Get returns the raw value of an attribute
func (m *ImageMetadata) Get(a Attr) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.attrs[a]
	if !ok || (len(v.Numbers) == 0 && len(v.Text) == 0) {
		return Value{}, false
	}
	return v, true
}

// GetFirst collapses a list-valued attribute to its first numeric element.
// Textual values that parse as numbers (DS / IS strings) are accepted.
func (m *ImageMetadata) GetFirst(a Attr) (float64, bool) {
	v, ok := m.Get(a)
	if !ok {
		return 0, false
	}
	if len(v.Numbers) > 0 {
		return v.Numbers[0], true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text[0]), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the first element of an attribute as an integer
func (m *ImageMetadata) Int(a Attr) (int, bool) {
	f, ok := m.GetFirst(a)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String returns the first textual element of an attribute
func (m *ImageMetadata) String(a Attr) (string, bool) {
	v, ok := m.Get(a)
	if !ok {
		return "", false
	}
	if len(v.Text) > 0 {
		return strings.TrimSpace(v.Text[0]), true
	}
	return strconv.FormatFloat(v.Numbers[0], 'g', -1, 64), true
}

// Photometric returns the photometric interpretation, Other when absent
func (m *ImageMetadata) Photometric() Photometric {
	s, ok := m.String(PhotometricInterpretation)
	if !ok {
		return Other
	}
	return ParsePhotometric(s)
}

// Window returns the first window center/width preset when both are present
func (m *ImageMetadata) Window() (center, width float64, ok bool) {
	center, okC := m.GetFirst(WindowCenter)
	width, okW := m.GetFirst(WindowWidth)
	if !okC || !okW {
		return 0, 0, false
	}
	return center, width, true
}

// NumberOfFrames returns the declared frame count; values below one are ignored
func (m *ImageMetadata) NumberOfFrames() (int, bool) {
	n, ok := m.Int(NumberOfFrames)
	if !ok || n < 1 {
		return 0, false
	}
	return n, true
}

// VOILUTs returns the lookup tables of the VOI LUT sequence, if any
func (m *ImageMetadata) VOILUTs() []VOILUT {
	if m == nil {
		return nil
	}
	return m.luts
}

// Attrs lists the attributes that are present, in no particular order
func (m *ImageMetadata) Attrs() []Attr {
	if m == nil {
		return nil
	}
	out := make([]Attr, 0, len(m.attrs))
	for a := range m.attrs {
		out = append(out, a)
	}
	return out
}

// Builder assembles an ImageMetadata. A Builder must not be reused after Build.
type Builder struct {
	md *ImageMetadata
}

func NewBuilder() *Builder {
	return &Builder{md: Empty()}
}

// Set stores a value, replacing any previous one
func (b *Builder) Set(a Attr, v Value) *Builder {
	b.md.attrs[a] = v
	return b
}

// SetNumbers is shorthand for Set(a, Numeric(v...))
func (b *Builder) SetNumbers(a Attr, v ...float64) *Builder {
	return b.Set(a, Numeric(v...))
}

// SetText is shorthand for Set(a, Textual(v...))
func (b *Builder) SetText(a Attr, v ...string) *Builder {
	return b.Set(a, Textual(v...))
}

// AddVOILUT appends a lookup table to the VOI LUT sequence
func (b *Builder) AddVOILUT(lut VOILUT) *Builder {
	lut.Data = append([]uint16(nil), lut.Data...)
	b.md.luts = append(b.md.luts, lut)
	return b
}

// Build returns the finished metadata
func (b *Builder) Build() *ImageMetadata {
	md := b.md
	b.md = nil
	return md
}
