package dicomio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg" // baseline JPEG fragments

	"github.com/cocosip/go-dicom-codec/jpeg/lossless14sv1"
	jpegls "github.com/cocosip/go-dicom-codec/jpegls/lossless"
	_ "github.com/mrjoshuak/go-jpeg2000" // registers jp2 and raw j2k codestreams
)

// sampleCodec expands one compressed fragment into interleaved little-endian
// samples
type sampleCodec func(data []byte) (pixels []byte, width, height int, err error)

// sampleCodecs decode transfer syntaxes the image package has no format for
var sampleCodecs = map[string]sampleCodec{
	JPEGLosslessSV1: func(data []byte) ([]byte, int, int, error) {
		pixels, w, h, _, _, err := lossless14sv1.Decode(data)
		return pixels, w, h, err
	},
	JPEGLSLossless: func(data []byte) ([]byte, int, int, error) {
		pixels, w, h, _, _, err := jpegls.Decode(data)
		return pixels, w, h, err
	},
}

// imageSyntaxes are decoded through image.Decode
var imageSyntaxes = map[string]bool{
	JPEGBaseline8Bit: true,
	JPEG2000Lossless: true,
	JPEG2000:         true,
}

// ForcedDecodable reports whether DecodeForced can expand the pixel data of
// the given transfer syntax with the codecs linked into this binary.
func ForcedDecodable(uid string) bool {
	uid = normalizeUID(uid)
	_, ok := sampleCodecs[uid]
	return ok || imageSyntaxes[uid]
}

// decodeFragment turns one encapsulated frame into an image
func decodeFragment(uid string, data []byte) (image.Image, error) {
	uid = normalizeUID(uid)
	if codec, ok := sampleCodecs[uid]; ok {
		pixels, w, h, err := codec(data)
		if err != nil {
			return nil, err
		}
		return samplesToImage(pixels, w, h)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("no codec for transfer syntax %q: %w", uid, err)
	}
	return img, nil
}

// samplesToImage wraps interleaved samples in an image. The layout is
// inferred from the byte count: 1 or 3 samples per pixel, 8 or 16 bits each.
func samplesToImage(pixels []byte, w, h int) (image.Image, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("decoded fragment has zero size (%dx%d)", w, h)
	}
	rect := image.Rect(0, 0, w, h)
	n := w * h

	switch len(pixels) {
	case n:
		img := image.NewGray(rect)
		copy(img.Pix, pixels)
		return img, nil
	case 2 * n:
		img := image.NewGray16(rect)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(img.Pix[2*i:], binary.LittleEndian.Uint16(pixels[2*i:]))
		}
		return img, nil
	case 3 * n:
		img := image.NewRGBA(rect)
		for i := 0; i < n; i++ {
			copy(img.Pix[4*i:4*i+3], pixels[3*i:3*i+3])
			img.Pix[4*i+3] = 0xff
		}
		return img, nil
	case 6 * n:
		img := image.NewRGBA64(rect)
		for i := 0; i < n; i++ {
			for c := 0; c < 3; c++ {
				v := binary.LittleEndian.Uint16(pixels[6*i+2*c:])
				binary.BigEndian.PutUint16(img.Pix[8*i+2*c:], v)
			}
			img.Pix[8*i+6], img.Pix[8*i+7] = 0xff, 0xff
		}
		return img, nil
	default:
		return nil, fmt.Errorf("decoded fragment has %d bytes, not a known layout for %dx%d", len(pixels), w, h)
	}
}
