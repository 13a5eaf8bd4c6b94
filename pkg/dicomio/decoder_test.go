package dicomio

import (
	"encoding/binary"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmtojpeg/internal/models"
	"dcmtojpeg/pkg/metadata"
)

func TestDtypeFor(t *testing.T) {
	tests := []struct {
		bits, repr float64
		want       models.DType
	}{
		{8, 0, models.Uint8},
		{16, 0, models.Uint16},
		{16, 1, models.Int16},
		{32, 0, models.Float64},
	}
	for _, tt := range tests {
		md := metadata.NewBuilder().
			SetNumbers(metadata.BitsAllocated, tt.bits).
			SetNumbers(metadata.PixelRepresentation, tt.repr).
			Build()
		assert.Equal(t, tt.want, dtypeFor(md), "bits=%v repr=%v", tt.bits, tt.repr)
	}
}

func TestBufferFromNativeSingleFrame(t *testing.T) {
	plane := [][]int{{1}, {2}, {3}, {4}, {5}, {6}}

	buf, err := bufferFromNative([][][]int{plane}, 2, 3, models.Uint16)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, buf.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, buf.Data)
}

func TestBufferFromNativeMultiFrameRGB(t *testing.T) {
	a := [][]int{{1, 2, 3}, {4, 5, 6}}
	b := [][]int{{7, 8, 9}, {10, 11, 12}}

	buf, err := bufferFromNative([][][]int{a, b}, 1, 2, models.Uint8)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2, 3}, buf.Shape)
	assert.Len(t, buf.Data, 12)
	assert.Equal(t, 7.0, buf.Data[6])
}

func TestBufferFromNativeSignedValues(t *testing.T) {
	plane := [][]int{{65535}, {32768}, {100}}

	buf, err := bufferFromNative([][][]int{plane}, 1, 3, models.Int16)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -32768, 100}, buf.Data)
}

func TestBufferFromNativeRejectsShortPlane(t *testing.T) {
	_, err := bufferFromNative([][][]int{{{1}, {2}}}, 2, 2, models.Uint8)
	assert.Error(t, err)
}

func TestBufferFromImages(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 200})

	buf, err := bufferFromImages([]image.Image{gray})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, buf.Shape)
	assert.Equal(t, models.Uint8, buf.DType)
	assert.Equal(t, []float64{0, 200}, buf.Data)

	rgb := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgb.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	buf, err = bufferFromImages([]image.Image{rgb, rgb})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 1, 3}, buf.Shape)
	assert.Equal(t, []float64{10, 20, 30, 10, 20, 30}, buf.Data)
}

func TestBufferFromImagesRejectsMixedSizes(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 2, 2))
	b := image.NewGray(image.Rect(0, 0, 3, 2))

	_, err := bufferFromImages([]image.Image{a, b})
	assert.Error(t, err)
}

func TestToValue(t *testing.T) {
	v, ok := toValue([]string{"40", "400"})
	require.True(t, ok)
	assert.Equal(t, []string{"40", "400"}, v.Text)

	v, ok = toValue([]int{16})
	require.True(t, ok)
	assert.Equal(t, []float64{16}, v.Numbers)

	_, ok = toValue([]byte{1, 2})
	assert.False(t, ok)

	_, ok = toValue([]string{})
	assert.False(t, ok)
}

func TestLUTData(t *testing.T) {
	assert.Equal(t, []uint16{1, 2}, lutData([]int{1, 2}, binary.LittleEndian))
	assert.Equal(t, []uint16{0x0201, 0x0403}, lutData([]byte{1, 2, 3, 4}, binary.LittleEndian))
	assert.Nil(t, lutData("nope", binary.LittleEndian))
}

func TestLUTDataFollowsTransferSyntaxByteOrder(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	assert.Equal(t, []uint16{0x0102, 0x0304}, lutData(raw, byteOrder(ExplicitVRBigEndian)))
	assert.Equal(t, []uint16{0x0201, 0x0403}, lutData(raw, byteOrder(ExplicitVRLittleEndian)))
	assert.Equal(t, []uint16{0x0201, 0x0403}, lutData(raw, byteOrder(ImplicitVRLittleEndian+"\x00")))
}

func TestClassifyTransferSyntax(t *testing.T) {
	assert.Equal(t, Uncompressed, ClassifyTransferSyntax(ExplicitVRLittleEndian))
	assert.Equal(t, Uncompressed, ClassifyTransferSyntax(ImplicitVRLittleEndian+"\x00"))
	assert.Equal(t, JPEGFamily, ClassifyTransferSyntax(JPEG2000))
	assert.Equal(t, RLE, ClassifyTransferSyntax(RLELossless))
	assert.Equal(t, UnknownCompression, ClassifyTransferSyntax("1.2.3"))
}

func TestForcedDecodable(t *testing.T) {
	for _, uid := range []string{JPEGBaseline8Bit, JPEGLosslessSV1, JPEGLSLossless, JPEG2000Lossless, JPEG2000 + "\x00"} {
		assert.True(t, ForcedDecodable(uid), uid)
	}
	for _, uid := range []string{RLELossless, ExplicitVRLittleEndian, "1.2.840.10008.1.2.4.57"} {
		assert.False(t, ForcedDecodable(uid), uid)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	d := NewDecoder(nil)
	missing := filepath.Join(t.TempDir(), "missing.dcm")

	_, _, err := d.Decode(missing)
	assert.Error(t, err)

	_, err = d.DecodeHeaders(missing)
	assert.Error(t, err)
}
